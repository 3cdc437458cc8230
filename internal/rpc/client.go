package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
	"github.com/ggonzalez94/casper-cli/internal/httpx"
	"github.com/ggonzalez94/casper-cli/internal/logging"
	"go.uber.org/zap"
)

const (
	jsonRPCVersion = "2.0"
	rpcPath        = "/rpc"

	MethodPutTransaction     = "account_put_transaction"
	MethodSpeculativeExecTxn = "speculative_exec_txn"
	MethodPutDeploy          = "account_put_deploy"
	MethodSpeculativeExec    = "speculative_exec"
	MethodGetBlock           = "chain_get_block"
	MethodGetBalance         = "state_get_balance"
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a successful JSON-RPC response with its result left undecoded.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *ErrorObject    `json:"error"`
}

// ErrorObject is the error member of a JSON-RPC response.
type ErrorObject struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	if len(e.Data) > 0 && string(e.Data) != "null" {
		return fmt.Sprintf("code %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// Client talks JSON-RPC to one node. Each call makes a single HTTP round trip unless
// the underlying httpx client was built with retries.
type Client struct {
	http     *httpx.Client
	endpoint string
	log      *zap.Logger
}

func New(nodeAddress string, httpClient *httpx.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{http: httpClient, endpoint: Endpoint(nodeAddress), log: log}
}

// Endpoint appends the /rpc path to a node address unless it is already present.
func Endpoint(nodeAddress string) string {
	base := strings.TrimRight(strings.TrimSpace(nodeAddress), "/")
	if strings.HasSuffix(base, rpcPath) {
		return base
	}
	return base + rpcPath
}

// Call sends method with params and returns the response. Node-reported errors come
// back as CodeRejected, unusable responses as CodeMalformedResponse.
func (c *Client) Call(ctx context.Context, id ID, method string, params any) (*Response, error) {
	body, err := json.Marshal(request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSerialization, "encode rpc request", err)
	}
	c.logRequest(id, method, body)

	start := time.Now()
	raw, err := c.http.PostJSON(ctx, c.endpoint, body)
	if err != nil {
		c.log.Info("rpc call failed", zap.String("method", method), zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}
	c.log.Debug("rpc response", zap.String("method", method), zap.Duration("latency", time.Since(start)), zap.ByteString("body", raw))

	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, clierr.Wrap(clierr.CodeMalformedResponse, fmt.Sprintf("decode %s response", method), err)
	}
	if resp.Error != nil {
		return nil, clierr.Wrap(clierr.CodeRejected, fmt.Sprintf("node rejected %s", method), resp.Error)
	}
	if !id.matches(resp.ID) {
		return nil, clierr.Newf(clierr.CodeMalformedResponse, "%s response id %s does not match request id %s", method, string(resp.ID), id)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, clierr.Newf(clierr.CodeMalformedResponse, "%s response has no result", method)
	}
	c.log.Info("rpc ok", zap.String("method", method), zap.String("id", id.String()), zap.Duration("latency", time.Since(start)))
	return &Response{JSONRPC: resp.JSONRPC, ID: resp.ID, Result: resp.Result}, nil
}

func (c *Client) logRequest(id ID, method string, body []byte) {
	if ce := c.log.Check(zap.DebugLevel, "rpc request"); ce != nil {
		ce.Write(zap.String("endpoint", c.endpoint), zap.ByteString("body", body))
		return
	}
	if ce := c.log.Check(zap.InfoLevel, "rpc request"); ce != nil {
		var decoded any
		_ = json.Unmarshal(body, &decoded)
		ce.Write(
			zap.String("endpoint", c.endpoint),
			zap.String("method", method),
			zap.String("id", id.String()),
			zap.Any("request", logging.AbbreviateJSON(decoded)),
		)
	}
}

// Decode unmarshals the result of r into out.
func (r *Response) Decode(out any) error {
	if err := json.Unmarshal(r.Result, out); err != nil {
		return clierr.Wrap(clierr.CodeMalformedResponse, "decode rpc result", err)
	}
	return nil
}
