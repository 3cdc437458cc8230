package args

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/chain"
)

const runtimeVmCasperV1 = "VmCasperV1"

type TargetKind string

const (
	TargetNative  TargetKind = "Native"
	TargetStored  TargetKind = "Stored"
	TargetSession TargetKind = "Session"
)

type InvocationKind string

const (
	InvokeByHash        InvocationKind = "ByHash"
	InvokeByName        InvocationKind = "ByName"
	InvokeByPackageHash InvocationKind = "ByPackageHash"
	InvokeByPackageName InvocationKind = "ByPackageName"
)

// Invocation addresses stored code by entity hash, alias, package hash or package name.
type Invocation struct {
	Kind    InvocationKind
	Hash    chain.Digest
	Name    string
	Version *uint32
}

// Target says what code a transaction runs: native, stored or a session module.
type Target struct {
	Kind             TargetKind
	Invocation       *Invocation
	ModuleBytes      []byte
	IsInstallUpgrade bool
}

func NativeTarget() Target { return Target{Kind: TargetNative} }

func StoredTarget(inv Invocation) Target { return Target{Kind: TargetStored, Invocation: &inv} }

func SessionTarget(module []byte, installUpgrade bool) Target {
	return Target{Kind: TargetSession, ModuleBytes: module, IsInstallUpgrade: installUpgrade}
}

func (t Target) Encode(e *chain.Encoder) {
	switch t.Kind {
	case TargetNative:
		e.PutU8(0)
	case TargetStored:
		e.PutU8(1)
		t.Invocation.Encode(e)
		e.PutString(runtimeVmCasperV1)
	case TargetSession:
		e.PutU8(2)
		e.PutBool(t.IsInstallUpgrade)
		e.PutBytes(t.ModuleBytes)
		e.PutString(runtimeVmCasperV1)
	}
}

func (i Invocation) Encode(e *chain.Encoder) {
	switch i.Kind {
	case InvokeByHash:
		e.PutU8(0)
		e.PutRaw(i.Hash[:])
	case InvokeByName:
		e.PutU8(1)
		e.PutString(i.Name)
	case InvokeByPackageHash:
		e.PutU8(2)
		e.PutRaw(i.Hash[:])
		e.PutOption(i.Version != nil, func(e *chain.Encoder) { e.PutU32(*i.Version) })
	case InvokeByPackageName:
		e.PutU8(3)
		e.PutString(i.Name)
		e.PutOption(i.Version != nil, func(e *chain.Encoder) { e.PutU32(*i.Version) })
	}
}

type packageRefJSON struct {
	Addr    *chain.Digest `json:"addr,omitempty"`
	Name    string        `json:"name,omitempty"`
	Version *uint32       `json:"version"`
}

func (i Invocation) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case InvokeByHash:
		return json.Marshal(map[string]chain.Digest{string(i.Kind): i.Hash})
	case InvokeByName:
		return json.Marshal(map[string]string{string(i.Kind): i.Name})
	case InvokeByPackageHash:
		hash := i.Hash
		return json.Marshal(map[string]packageRefJSON{string(i.Kind): {Addr: &hash, Version: i.Version}})
	case InvokeByPackageName:
		return json.Marshal(map[string]packageRefJSON{string(i.Kind): {Name: i.Name, Version: i.Version}})
	default:
		return nil, fmt.Errorf("unknown invocation kind %q", i.Kind)
	}
}

func (i *Invocation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 1 {
		return fmt.Errorf("invocation target must be an object with one variant")
	}
	for kind, body := range raw {
		switch InvocationKind(kind) {
		case InvokeByHash:
			var d chain.Digest
			if err := json.Unmarshal(body, &d); err != nil {
				return err
			}
			*i = Invocation{Kind: InvokeByHash, Hash: d}
		case InvokeByName:
			var name string
			if err := json.Unmarshal(body, &name); err != nil {
				return err
			}
			*i = Invocation{Kind: InvokeByName, Name: name}
		case InvokeByPackageHash, InvokeByPackageName:
			var ref packageRefJSON
			if err := json.Unmarshal(body, &ref); err != nil {
				return err
			}
			out := Invocation{Kind: InvocationKind(kind), Name: ref.Name, Version: ref.Version}
			if ref.Addr != nil {
				out.Hash = *ref.Addr
			}
			*i = out
		default:
			return fmt.Errorf("unknown invocation variant %q", kind)
		}
	}
	return nil
}

type storedJSON struct {
	ID      Invocation `json:"id"`
	Runtime string     `json:"runtime"`
}

type sessionJSON struct {
	IsInstallUpgrade bool   `json:"is_install_upgrade"`
	ModuleBytes      string `json:"module_bytes"`
	Runtime          string `json:"runtime"`
}

func (t Target) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case TargetNative:
		return json.Marshal(string(TargetNative))
	case TargetStored:
		if t.Invocation == nil {
			return nil, fmt.Errorf("stored target without invocation")
		}
		return json.Marshal(map[string]storedJSON{string(TargetStored): {ID: *t.Invocation, Runtime: runtimeVmCasperV1}})
	case TargetSession:
		return json.Marshal(map[string]sessionJSON{string(TargetSession): {
			IsInstallUpgrade: t.IsInstallUpgrade,
			ModuleBytes:      hex.EncodeToString(t.ModuleBytes),
			Runtime:          runtimeVmCasperV1,
		}})
	default:
		return nil, fmt.Errorf("unknown target kind %q", t.Kind)
	}
}

func (t *Target) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if TargetKind(name) != TargetNative {
			return fmt.Errorf("unknown target %q", name)
		}
		*t = NativeTarget()
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode target: %w", err)
	}
	if body, ok := raw[string(TargetStored)]; ok {
		var stored storedJSON
		if err := json.Unmarshal(body, &stored); err != nil {
			return err
		}
		*t = StoredTarget(stored.ID)
		return nil
	}
	if body, ok := raw[string(TargetSession)]; ok {
		var session sessionJSON
		if err := json.Unmarshal(body, &session); err != nil {
			return err
		}
		module, err := hex.DecodeString(session.ModuleBytes)
		if err != nil {
			return fmt.Errorf("decode module bytes: %w", err)
		}
		*t = SessionTarget(module, session.IsInstallUpgrade)
		return nil
	}
	return fmt.Errorf("unknown target %s", string(data))
}

// EntryPoint names the function invoked on the target. Native entry points use
// their fixed names; anything else is a custom entry point.
type EntryPoint string

const (
	EntryPointCall       EntryPoint = "Call"
	EntryPointTransfer   EntryPoint = "Transfer"
	EntryPointDelegate   EntryPoint = "Delegate"
	EntryPointUndelegate EntryPoint = "Undelegate"
)

var nativeEntryPoints = map[EntryPoint]byte{
	EntryPointCall:       0,
	EntryPointTransfer:   2,
	EntryPointDelegate:   7,
	EntryPointUndelegate: 8,
}

func (p EntryPoint) IsCustom() bool {
	_, native := nativeEntryPoints[p]
	return !native
}

func (p EntryPoint) Encode(e *chain.Encoder) {
	if tag, ok := nativeEntryPoints[p]; ok {
		e.PutU8(tag)
		return
	}
	e.PutU8(1)
	e.PutString(string(p))
}

func (p EntryPoint) MarshalJSON() ([]byte, error) {
	if p.IsCustom() {
		return json.Marshal(map[string]string{"Custom": string(p)})
	}
	return json.Marshal(string(p))
}

func (p *EntryPoint) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = EntryPoint(name)
		return nil
	}
	var custom map[string]string
	if err := json.Unmarshal(data, &custom); err != nil {
		return fmt.Errorf("decode entry point: %w", err)
	}
	name, ok := custom["Custom"]
	if !ok {
		return fmt.Errorf("unknown entry point %s", string(data))
	}
	*p = EntryPoint(name)
	return nil
}

// Body is the session part of a transaction: what runs, how, and with which args.
type Body struct {
	Args       RuntimeArgs `json:"args"`
	Target     Target      `json:"target"`
	EntryPoint EntryPoint  `json:"entry_point"`
	Scheduling string      `json:"scheduling"`
}

// Category groups bodies the way blocks group transactions into lanes.
type Category byte

const (
	CategoryMint       Category = 0
	CategoryAuction    Category = 1
	CategoryInstall    Category = 2
	CategoryLarge      Category = 3
	CategoryMedium     Category = 4
	CategorySmall      Category = 5
	schedulingStandard          = "Standard"
)

// CategoryOf derives the lane of a body from its target and entry point.
func CategoryOf(b Body) Category {
	switch b.Target.Kind {
	case TargetNative:
		if b.EntryPoint == EntryPointTransfer {
			return CategoryMint
		}
		return CategoryAuction
	case TargetSession:
		if b.Target.IsInstallUpgrade {
			return CategoryInstall
		}
		return CategoryLarge
	default:
		return CategoryLarge
	}
}

func (b Body) Encode(e *chain.Encoder) {
	b.Args.Encode(e)
	b.Target.Encode(e)
	b.EntryPoint.Encode(e)
	e.PutString(b.Scheduling)
}
