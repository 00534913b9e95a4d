package payload

import (
	"errors"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		pairs []any
		want  string
	}{
		{"empty", nil, `{}`},
		{"flat", []any{"a", 1, "b", "two"}, `{"a":1,"b":"two"}`},
		{"nested", []any{"user.name", "ann", "user.age", 30}, `{"user":{"name":"ann","age":30}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.pairs...)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	if _, err := Encode("lonely"); !errors.Is(err, ErrOddPairs) {
		t.Errorf("expected ErrOddPairs, got %v", err)
	}
	if _, err := Encode(1, 2); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestGetValidSet(t *testing.T) {
	doc := MustEncode("count", 3)
	if !Valid(doc) {
		t.Fatalf("expected %s to be valid", doc)
	}
	if Get(doc, "count").Int() != 3 {
		t.Errorf("expected count 3 in %s", doc)
	}

	doc, err := Set(doc, "count", 4)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if Get(doc, "count").Int() != 4 {
		t.Errorf("expected count 4 in %s", doc)
	}
	if Valid(`{"broken":`) {
		t.Error("expected truncated document to be invalid")
	}
}

func TestPretty(t *testing.T) {
	doc := MustEncode("JSONObject.property", "text", "JSONObject.count", 888, "JSONObject.list", []int{1, 2, 3})

	got := Pretty(doc)
	if !Valid(got) {
		t.Fatalf("expected valid JSON, got %q", got)
	}
	if Get(got, "JSONObject.count").Int() != 888 || Get(got, "JSONObject.list.#").Int() != 3 {
		t.Errorf("pretty output lost data: %s", got)
	}
	if len(got) <= len(doc) {
		t.Errorf("expected indented output to be longer than %q, got %q", doc, got)
	}
}

func TestBind(t *testing.T) {
	sig := signal.New[string]("json")

	var got []string
	Bind(sig, "name", func(r gjson.Result) {
		got = append(got, r.String())
	}, WithLogger(logging.Discard()))

	sig.Emit(MustEncode("name", "first"))
	sig.Emit("not json")
	sig.Emit(MustEncode("name", "second"))

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("expected [first second], got %v", got)
	}
}

func TestBind_Required(t *testing.T) {
	sig := signal.New[string]("json")

	var calls int
	conn := Bind(sig, "id", func(gjson.Result) { calls++ },
		WithLogger(logging.Discard()), Required())

	sig.Emit(`{"other":1}`)
	sig.Emit(`{"id":7}`)
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	conn.Disconnect()
	sig.Emit(`{"id":8}`)
	if calls != 1 {
		t.Errorf("expected disconnected binding to stop, got %d calls", calls)
	}
}
