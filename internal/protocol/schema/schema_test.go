package schema

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/danmuck/fixwire/internal/testutil/testlog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestDefinePositionsFollowDeclarationOrder(t *testing.T) {
	testlog.Start(t)
	def, err := Define("NewOrderSingle",
		String(11, "ClOrdID"),
		String(1, "Account"),
		Float(44, "Price"),
		Char(54, "Side"),
	)
	if err != nil {
		t.Fatalf("define: %v", err)
	}
	for want, tag := range []int{11, 1, 44, 54} {
		pos, ok := def.Position(tag)
		if !ok || pos != want {
			t.Fatalf("Position(%d)=(%d,%v) want %d", tag, pos, ok, want)
		}
	}
	if _, ok := def.Position(35); ok {
		t.Fatalf("expected undeclared tag to miss")
	}
	if got := def.Tags(); len(got) != 4 || got[0] != 11 || got[3] != 54 {
		t.Fatalf("tags=%v", got)
	}
	if m, ok := def.Lookup("Price"); !ok || m.Tag != 44 || m.Kind != value.KindFloat {
		t.Fatalf("lookup price=%+v,%v", m, ok)
	}
}

func TestPermutedDefinitionsShareDispatch(t *testing.T) {
	testlog.Start(t)
	a := MustDefine("A", Int(4, "a"), Int(8, "b"), Int(15, "c"))
	b := MustDefine("B", Int(15, "c"), Int(4, "a"), Int(8, "b"))
	c := MustDefine("C", Int(4, "a"), Int(8, "b"))
	if !a.DispatchCompatible(b) || a.Index() != b.Index() {
		t.Fatalf("expected permuted definitions to share one index")
	}
	if a.DispatchCompatible(c) {
		t.Fatalf("expected distinct tag sets to be incompatible")
	}
}

func TestDefineRejectsInvalidMembers(t *testing.T) {
	testlog.Start(t)
	elem := MustDefine("Elem", String(448, "PartyID"))
	cases := []struct {
		name   string
		member []Member
		tag    int
		reason string
	}{
		{"duplicate", []Member{Int(34, "a"), String(34, "b")}, 34, "duplicate tag"},
		{"non-positive", []Member{Int(0, "zero")}, 0, "tag must be positive"},
		{"fixed width", []Member{Fixed(9, "BodyLength", 0)}, 9, "fixed width 0 outside 1..19"},
		{"group elem", []Member{Group(453, "NoPartyIDs", nil)}, 453, "group without element definition"},
		{"kind", []Member{{Tag: 5, Name: "x"}}, 5, "invalid kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Define("Bad", append([]Member{Group(999, "ok", elem)}, tc.member...)...)
			var de DefinitionError
			if !errors.As(err, &de) {
				t.Fatalf("expected DefinitionError, got %v", err)
			}
			if de.Tag != tc.tag || de.Reason != tc.reason {
				t.Fatalf("unexpected error: %+v", de)
			}
		})
	}
}

func TestMustDefinePanics(t *testing.T) {
	testlog.Start(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustDefine("Bad", Int(1, "a"), Int(1, "b"))
}

func TestDefineLogsOnlyRejections(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	MustDefine("Quiet", Int(1, "a"), String(2, "b"))
	if buf.Len() != 0 {
		t.Fatalf("successful define logged: %q", buf.String())
	}

	if _, err := Define("Loud", Int(-1, "a")); err == nil {
		t.Fatalf("expected rejection")
	}
	line := buf.String()
	if !strings.Contains(line, `"schema":"Loud"`) {
		t.Fatalf("rejection not attributed to its schema: %q", line)
	}
	if n := strings.Count(line, `"message":`); n != 1 {
		t.Fatalf("expected one message key, got %d in %q", n, line)
	}
}
