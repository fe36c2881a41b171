// Package dict owns field dictionaries: the builtin FIX 4.4 sample and
// dictionaries loaded from TOML.
package dict

import (
	"github.com/danmuck/fixwire/internal/protocol/schema"
)

// Session-level framing tags.
const (
	TagBeginString = 8
	TagBodyLength  = 9
	TagCheckSum    = 10
)

// Sample dictionary tags.
const (
	TagAccount       = 1
	TagClOrdID       = 11
	TagMsgSeqNum     = 34
	TagMsgType       = 35
	TagPossDupFlag   = 43
	TagPrice         = 44
	TagSenderCompID  = 49
	TagSide          = 54
	TagTargetCompID  = 56
	TagEncryptMethod = 98
	TagHeartBtInt    = 108
	TagPartyIDSource = 447
	TagPartyID       = 448
	TagPartyRole     = 452
	TagNoPartyIDs    = 453
	TagPassword      = 554
	TagNoOrders      = 999
)

// Framing field widths.
const (
	BodyLengthWidth = 5
	CheckSumWidth   = 3
)

const (
	MsgTypeLogon          = "A"
	MsgTypeNewOrderSingle = "D"
	MsgTypeNestedOrders   = "U1"
)

var (
	Party = schema.MustDefine("Party",
		schema.String(TagPartyID, "PartyID"),
		schema.Char(TagPartyIDSource, "PartyIDSource"),
		schema.Int(TagPartyRole, "PartyRole"),
	)

	Header = schema.MustDefine("Header",
		schema.String(TagBeginString, "BeginString"),
		schema.Fixed(TagBodyLength, "BodyLength", BodyLengthWidth),
		schema.String(TagMsgType, "MsgType"),
		schema.String(TagSenderCompID, "SenderCompID"),
		schema.String(TagTargetCompID, "TargetCompID"),
		schema.Int(TagMsgSeqNum, "MsgSeqNum"),
		schema.Char(TagPossDupFlag, "PossDupFlag"),
	)

	Trailer = schema.MustDefine("Trailer",
		schema.Fixed(TagCheckSum, "CheckSum", CheckSumWidth),
	)

	Logon = schema.MustDefine("Logon",
		schema.Int(TagEncryptMethod, "EncryptMethod"),
		schema.Int(TagHeartBtInt, "HeartBtInt"),
		schema.String(TagPassword, "Password"),
	)

	NewOrderSingle = schema.MustDefine("NewOrderSingle",
		schema.String(TagClOrdID, "ClOrdID"),
		schema.String(TagAccount, "Account"),
		schema.Group(TagNoPartyIDs, "NoPartyIDs", Party),
		schema.Float(TagPrice, "Price"),
		schema.Char(TagSide, "Side"),
	)

	Order = schema.MustDefine("Order",
		schema.String(TagClOrdID, "ClOrdID"),
		schema.Group(TagNoPartyIDs, "NoPartyIDs", Party),
	)

	NestedGroupsOrder = schema.MustDefine("NestedGroupsOrder",
		schema.String(TagAccount, "Account"),
		schema.Group(TagNoOrders, "NoOrders", Order),
		schema.String(TagPassword, "Password"),
	)
)

// Builtin returns the sample dictionary.
func Builtin() *Dictionary {
	return &Dictionary{
		Name:    "builtin",
		Header:  Header,
		Trailer: Trailer,
		bodies: map[string]*schema.MessageDef{
			MsgTypeLogon:          Logon,
			MsgTypeNewOrderSingle: NewOrderSingle,
			MsgTypeNestedOrders:   NestedGroupsOrder,
		},
	}
}
