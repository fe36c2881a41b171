package message

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/dict"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/danmuck/fixwire/internal/testutil/testlog"
)

const delim = '|'

func sampleOrder() *Message {
	nos := New(dict.NewOrderSingle)
	nos.SetString(dict.TagClOrdID, "123ABC").
		SetString(dict.TagAccount, "ololo//OLOLO").
		SetFloat(dict.TagPrice, 66.6625).
		SetChar(dict.TagSide, '2')

	parties := nos.Group(dict.TagNoPartyIDs).Resize(3)
	parties.At(0).
		SetString(dict.TagPartyID, "USER").
		SetInt(dict.TagPartyRole, 12).
		SetChar(dict.TagPartyIDSource, 'X')
	parties.At(1).
		SetString(dict.TagPartyID, "FIRM").
		SetChar(dict.TagPartyIDSource, 'Y')
	parties.At(2).SetString(dict.TagPartyID, "KGB")
	return nos
}

func roundTrip(t *testing.T, in *Message) (*Message, []byte) {
	t.Helper()
	buf := make([]byte, 1024)
	w := cursor.NewWriter(buf)
	if err := in.Serialize(w, delim); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out := New(in.Def())
	r := cursor.NewReader(buf).ResetTo(w.Processed())
	if err := out.Deserialize(r, delim); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if w.Processed() != r.Processed() {
		t.Fatalf("processed mismatch: wrote %d read %d", w.Processed(), r.Processed())
	}
	if !in.Equal(out) {
		t.Fatalf("round-trip mismatch for %q", w.Written())
	}
	return out, w.Written()
}

func TestNewOrderSingleWireAndRoundTrip(t *testing.T) {
	testlog.Start(t)
	out, wire := roundTrip(t, sampleOrder())
	want := "11=123ABC|1=ololo//OLOLO|453=3|448=USER|447=X|452=12|448=FIRM|447=Y|448=KGB|44=66.6625|54=2|"
	if string(wire) != want {
		t.Fatalf("wire=%q\nwant=%q", wire, want)
	}
	if price, ok := out.Float(dict.TagPrice); !ok || price != 66.6625 {
		t.Fatalf("price=%v,%v", price, ok)
	}
	if side, ok := out.Char(dict.TagSide); !ok || side != '2' {
		t.Fatalf("side=%q,%v", side, ok)
	}
	parties := out.Group(dict.TagNoPartyIDs)
	if parties.Len() != 3 {
		t.Fatalf("parties=%d", parties.Len())
	}
	if role, ok := parties.At(0).Int(dict.TagPartyRole); !ok || role != 12 {
		t.Fatalf("role=%d,%v", role, ok)
	}
	if parties.At(1).Present(dict.TagPartyRole) || parties.At(2).Present(dict.TagPartyIDSource) {
		t.Fatalf("absent group fields decoded as present")
	}
}

func TestAbsentFieldsAreSilent(t *testing.T) {
	testlog.Start(t)
	h := New(dict.Header)
	h.SetString(dict.TagBeginString, "FIX.4.4").
		SetString(dict.TagMsgType, "A").
		SetInt(dict.TagMsgSeqNum, 1).
		SetChar(dict.TagPossDupFlag, 'Y')
	h.Clear(dict.TagPossDupFlag)

	out, wire := roundTrip(t, h)
	if string(wire) != "8=FIX.4.4|35=A|34=1|" {
		t.Fatalf("wire=%q", wire)
	}
	for _, tag := range []int{dict.TagBodyLength, dict.TagSenderCompID, dict.TagTargetCompID, dict.TagPossDupFlag} {
		if out.Present(tag) {
			t.Fatalf("tag %d decoded as present", tag)
		}
	}
	if _, ok := out.String(dict.TagSenderCompID); ok {
		t.Fatalf("expected absent string")
	}
}

func TestEmptyMessageWritesNothing(t *testing.T) {
	testlog.Start(t)
	w := cursor.NewWriter(make([]byte, 0))
	if err := New(dict.NewOrderSingle).Serialize(w, delim); err != nil {
		t.Fatalf("serialize empty: %v", err)
	}
	if w.Processed() != 0 {
		t.Fatalf("empty message wrote %d bytes", w.Processed())
	}
}

func TestGroupRoundTripSizes(t *testing.T) {
	testlog.Start(t)
	for _, n := range []int{0, 1, 3} {
		nos := New(dict.NewOrderSingle).SetString(dict.TagClOrdID, "C1").SetChar(dict.TagSide, '1')
		parties := nos.Group(dict.TagNoPartyIDs).Resize(n)
		for i := 0; i < n; i++ {
			parties.At(i).
				SetString(dict.TagPartyID, strings.Repeat("P", i+1)).
				SetInt(dict.TagPartyRole, int64(i))
		}
		out, wire := roundTrip(t, nos)
		if got := out.Group(dict.TagNoPartyIDs).Len(); got != n {
			t.Fatalf("n=%d: decoded %d elements", n, got)
		}
		if n == 0 && bytes.Contains(wire, []byte("453=")) {
			t.Fatalf("empty group reached the wire: %q", wire)
		}
		for i := 0; i < n; i++ {
			id, _ := out.Group(dict.TagNoPartyIDs).At(i).String(dict.TagPartyID)
			if id != strings.Repeat("P", i+1) {
				t.Fatalf("n=%d element %d id=%q", n, i, id)
			}
		}
	}
}

func TestNestedGroupsRoundTrip(t *testing.T) {
	testlog.Start(t)
	batch := New(dict.NestedGroupsOrder)
	batch.SetString(dict.TagAccount, "Nested!").SetString(dict.TagPassword, "PSSWD")
	ids := []string{"aaa", "bbb", "ccc"}
	orders := batch.Group(dict.TagNoOrders).Resize(len(ids))
	for i, id := range ids {
		order := orders.At(i).SetString(dict.TagClOrdID, id)
		parties := order.Group(dict.TagNoPartyIDs)
		for _, p := range []string{"YOU", "ME", "KGB"} {
			parties.Append().SetString(dict.TagPartyID, p).SetInt(dict.TagPartyRole, 0)
		}
	}

	out, wire := roundTrip(t, batch)
	if !bytes.HasPrefix(wire, []byte("1=Nested!|999=3|11=aaa|453=3|448=YOU|452=0|448=ME|452=0|")) {
		t.Fatalf("wire=%q", wire)
	}
	if !bytes.HasSuffix(wire, []byte("448=KGB|452=0|554=PSSWD|")) {
		t.Fatalf("wire=%q", wire)
	}
	got := out.Group(dict.TagNoOrders)
	if got.Len() != 3 {
		t.Fatalf("orders=%d", got.Len())
	}
	for i, id := range ids {
		clOrdID, _ := got.At(i).String(dict.TagClOrdID)
		if clOrdID != id || got.At(i).Group(dict.TagNoPartyIDs).Len() != 3 {
			t.Fatalf("order %d: id=%q parties=%d", i, clOrdID, got.At(i).Group(dict.TagNoPartyIDs).Len())
		}
	}
	if pw, ok := out.String(dict.TagPassword); !ok || pw != "PSSWD" {
		t.Fatalf("password=%q,%v", pw, ok)
	}
}

func TestDeserializeStopsAtForeignOrRepeatedTag(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name  string
		input string
		stop  int
	}{
		{"unknown tag", "11=A|35=D|54=1|", len("11=A|")},
		{"repeated tag", "11=A|54=1|11=B|", len("11=A|54=1|")},
		{"first tag foreign", "35=D|", 0},
		{"all consumed", "54=1|11=A|", len("54=1|11=A|")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(dict.NewOrderSingle)
			r := cursor.NewReader([]byte(tc.input))
			if err := m.Deserialize(r, delim); err != nil {
				t.Fatalf("deserialize: %v", err)
			}
			if r.Processed() != tc.stop {
				t.Fatalf("stopped at %d want %d", r.Processed(), tc.stop)
			}
		})
	}
}

func TestDeserializeErrors(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name  string
		input string
		tag   int
		want  error
	}{
		{"bad tag token", "11=A|x=1|", 0, value.ErrMalformedValue},
		{"missing delimiter", "11=A|44=1.5", dict.TagPrice, value.ErrDelimiterNotFound},
		{"bad char", "54=12|", dict.TagSide, value.ErrMalformedValue},
		{"negative group count", "453=-1|", dict.TagNoPartyIDs, value.ErrMalformedValue},
		{"oversized group count", "453=900|448=A|", dict.TagNoPartyIDs, value.ErrMalformedValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := New(dict.NewOrderSingle).Deserialize(cursor.NewReader([]byte(tc.input)), delim)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var fe FieldError
			if !errors.As(err, &fe) || fe.Tag != tc.tag || fe.Message != "NewOrderSingle" {
				t.Fatalf("unexpected field error: %+v", fe)
			}
		})
	}
}

func TestSerializeBufferTooSmallRewindsField(t *testing.T) {
	testlog.Start(t)
	m := New(dict.NewOrderSingle).SetString(dict.TagClOrdID, "A").SetString(dict.TagAccount, "ACCOUNT")
	w := cursor.NewWriter(make([]byte, 8))
	err := m.Serialize(w, delim)
	if !errors.Is(err, value.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall, got %v", err)
	}
	var fe FieldError
	if !errors.As(err, &fe) || fe.Tag != dict.TagAccount {
		t.Fatalf("unexpected field error %+v", fe)
	}
	if string(w.Written()) != "11=A|" {
		t.Fatalf("failed field left bytes: %q", w.Written())
	}
}

func TestDeclarationOrderDrivesWire(t *testing.T) {
	testlog.Start(t)
	def := schema.MustDefine("Reordered",
		schema.Int(42, "c"),
		schema.Int(4, "a"),
		schema.Int(16, "b"),
	)
	m := New(def).SetInt(4, 1).SetInt(16, 2).SetInt(42, 3)
	_, wire := roundTrip(t, m)
	if string(wire) != "42=3|4=1|16=2|" {
		t.Fatalf("wire=%q", wire)
	}
	out := New(def)
	if err := out.Deserialize(cursor.NewReader([]byte("16=2|4=1|42=3|")), delim); err != nil {
		t.Fatalf("deserialize permuted input: %v", err)
	}
	if !out.Equal(m) {
		t.Fatalf("permuted input decoded differently")
	}
}

func TestDeserializeResetsPreviousValues(t *testing.T) {
	testlog.Start(t)
	m := New(dict.NewOrderSingle).SetString(dict.TagAccount, "stale")
	if err := m.Deserialize(cursor.NewReader([]byte("11=A|")), delim); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if m.Present(dict.TagAccount) {
		t.Fatalf("stale value survived deserialize")
	}
}

func TestAddressingUndeclaredTagPanics(t *testing.T) {
	testlog.Start(t)
	cases := map[string]func(m *Message){
		"undeclared": func(m *Message) { m.SetInt(35, 1) },
		"wrong kind": func(m *Message) { m.SetInt(dict.TagClOrdID, 1) },
		"not group":  func(m *Message) { m.Group(dict.TagPrice) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn(New(dict.NewOrderSingle))
		})
	}
}

func TestDump(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := sampleOrder().Dump(&buf); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ClOrdID(11)=123ABC\n", "NoPartyIDs(453)=3\n", "  [2]\n", "    PartyID(448)=KGB\n", "Side(54)=2\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
}
