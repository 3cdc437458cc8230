package txn

import (
	"encoding/json"
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/chain"
)

type PricingKind string

const (
	PricingFixed          PricingKind = "Fixed"
	PricingPaymentLimited PricingKind = "PaymentLimited"
)

// PricingMode is how a transaction pays for execution. Fixed pricing charges by lane;
// payment-limited (classic) pricing caps the payment at PaymentAmount.
type PricingMode struct {
	Kind                        PricingKind
	GasPriceTolerance           uint8
	AdditionalComputationFactor uint8
	PaymentAmount               uint64
	StandardPayment             bool
}

func (p PricingMode) Encode(e *chain.Encoder) {
	switch p.Kind {
	case PricingPaymentLimited:
		e.PutU8(0)
		e.PutU64(p.PaymentAmount)
		e.PutU8(p.GasPriceTolerance)
		e.PutBool(p.StandardPayment)
	default:
		e.PutU8(1)
		e.PutU8(p.AdditionalComputationFactor)
		e.PutU8(p.GasPriceTolerance)
	}
}

type fixedJSON struct {
	AdditionalComputationFactor uint8 `json:"additional_computation_factor"`
	GasPriceTolerance           uint8 `json:"gas_price_tolerance"`
}

type limitedJSON struct {
	PaymentAmount     uint64 `json:"payment_amount"`
	GasPriceTolerance uint8  `json:"gas_price_tolerance"`
	StandardPayment   bool   `json:"standard_payment"`
}

func (p PricingMode) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PricingFixed:
		return json.Marshal(map[string]fixedJSON{string(p.Kind): {
			AdditionalComputationFactor: p.AdditionalComputationFactor,
			GasPriceTolerance:           p.GasPriceTolerance,
		}})
	case PricingPaymentLimited:
		return json.Marshal(map[string]limitedJSON{string(p.Kind): {
			PaymentAmount:     p.PaymentAmount,
			GasPriceTolerance: p.GasPriceTolerance,
			StandardPayment:   p.StandardPayment,
		}})
	default:
		return nil, fmt.Errorf("unknown pricing mode %q", p.Kind)
	}
}

func (p *PricingMode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode pricing mode: %w", err)
	}
	if body, ok := raw[string(PricingFixed)]; ok {
		var fixed fixedJSON
		if err := json.Unmarshal(body, &fixed); err != nil {
			return err
		}
		*p = PricingMode{Kind: PricingFixed, AdditionalComputationFactor: fixed.AdditionalComputationFactor, GasPriceTolerance: fixed.GasPriceTolerance}
		return nil
	}
	if body, ok := raw[string(PricingPaymentLimited)]; ok {
		var limited limitedJSON
		if err := json.Unmarshal(body, &limited); err != nil {
			return err
		}
		*p = PricingMode{Kind: PricingPaymentLimited, PaymentAmount: limited.PaymentAmount, GasPriceTolerance: limited.GasPriceTolerance, StandardPayment: limited.StandardPayment}
		return nil
	}
	return fmt.Errorf("unknown pricing mode %s", string(data))
}
