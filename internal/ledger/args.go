package ledger

import (
	"fmt"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// Tag declares the ledger-side type of a native argument. Callers state
// the target type explicitly; nothing is inferred from runtime shape, so a
// 64-bit quantity can never silently truncate into a 32-bit slot.
type Tag string

const (
	TagVoid    Tag = "void"
	TagBool    Tag = "bool"
	TagU32     Tag = "u32"
	TagU64     Tag = "u64"
	TagI64     Tag = "i64"
	TagU128    Tag = "u128"
	TagString  Tag = "string"
	TagSymbol  Tag = "symbol"
	TagAddress Tag = "address"
	TagBytes   Tag = "bytes"
)

// Arg is one positional contract-function argument with its declared tag.
type Arg struct {
	tag Tag
	b   bool
	u64 uint64
	i64 int64
	hi  uint64
	lo  uint64
	str string
	raw []byte
}

func Void() Arg                     { return Arg{tag: TagVoid} }
func Bool(v bool) Arg               { return Arg{tag: TagBool, b: v} }
func U32(v uint32) Arg              { return Arg{tag: TagU32, u64: uint64(v)} }
func U64(v uint64) Arg              { return Arg{tag: TagU64, u64: v} }
func I64(v int64) Arg               { return Arg{tag: TagI64, i64: v} }
func U128(hi, lo uint64) Arg        { return Arg{tag: TagU128, hi: hi, lo: lo} }
func String(v string) Arg           { return Arg{tag: TagString, str: v} }
func Symbol(v string) Arg           { return Arg{tag: TagSymbol, str: v} }
func Address(strkeyAddr string) Arg { return Arg{tag: TagAddress, str: strkeyAddr} }
func Bytes(v []byte) Arg            { return Arg{tag: TagBytes, raw: v} }

func (a Arg) Tag() Tag { return a.tag }

// ScVal encodes the argument for its declared tag.
func (a Arg) ScVal() (xdr.ScVal, error) {
	switch a.tag {
	case TagVoid:
		return xdr.ScVal{Type: xdr.ScValTypeScvVoid}, nil
	case TagBool:
		b := a.b
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}, nil
	case TagU32:
		v := xdr.Uint32(a.u64)
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v}, nil
	case TagU64:
		v := xdr.Uint64(a.u64)
		return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &v}, nil
	case TagI64:
		v := xdr.Int64(a.i64)
		return xdr.ScVal{Type: xdr.ScValTypeScvI64, I64: &v}, nil
	case TagU128:
		parts := xdr.UInt128Parts{Hi: xdr.Uint64(a.hi), Lo: xdr.Uint64(a.lo)}
		return xdr.ScVal{Type: xdr.ScValTypeScvU128, U128: &parts}, nil
	case TagString:
		s := xdr.ScString(a.str)
		return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &s}, nil
	case TagSymbol:
		if len(a.str) > 32 {
			return xdr.ScVal{}, fmt.Errorf("symbol %q exceeds 32 characters", a.str)
		}
		sym := xdr.ScSymbol(a.str)
		return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}, nil
	case TagAddress:
		addr, err := scAddress(a.str)
		if err != nil {
			return xdr.ScVal{}, err
		}
		return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
	case TagBytes:
		b := xdr.ScBytes(a.raw)
		return xdr.ScVal{Type: xdr.ScValTypeScvBytes, Bytes: &b}, nil
	default:
		return xdr.ScVal{}, fmt.Errorf("unknown argument tag %q", a.tag)
	}
}

// scAddress parses an account (G...) or contract (C...) strkey address.
func scAddress(addr string) (xdr.ScAddress, error) {
	switch {
	case strkey.IsValidEd25519PublicKey(addr):
		accountID, err := xdr.AddressToAccountId(addr)
		if err != nil {
			return xdr.ScAddress{}, err
		}
		return xdr.ScAddress{
			Type:      xdr.ScAddressTypeScAddressTypeAccount,
			AccountId: &accountID,
		}, nil
	case strkey.IsValidContractAddress(addr):
		raw, err := strkey.Decode(strkey.VersionByteContract, addr)
		if err != nil {
			return xdr.ScAddress{}, err
		}
		var id xdr.ContractId
		copy(id[:], raw)
		return xdr.ScAddress{
			Type:       xdr.ScAddressTypeScAddressTypeContract,
			ContractId: &id,
		}, nil
	default:
		return xdr.ScAddress{}, fmt.Errorf("%q is neither an account nor a contract address", addr)
	}
}

// encodeArgs converts the positional arguments, mapping the first failure
// to an InvalidArgumentError naming the position.
func encodeArgs(args []Arg) ([]xdr.ScVal, error) {
	out := make([]xdr.ScVal, 0, len(args))
	for i, arg := range args {
		val, err := arg.ScVal()
		if err != nil {
			return nil, &InvalidArgumentError{Position: i, Tag: string(arg.tag), Reason: err.Error()}
		}
		out = append(out, val)
	}
	return out, nil
}
