package provider

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
)

var (
	acmeID  = uuid.MustParse("5f7114d1-4091-46ee-b492-e55875f7de00")
	boltID  = uuid.MustParse("3291c288-c9c8-42f1-bc3e-8502b077cd7f")
	limeID  = uuid.MustParse("63f13c48-34ff-49d2-aca7-cf6a5b6171c3")
	otherID = uuid.MustParse("2411d395-04f2-47c9-ab66-d09e9e3c3251")
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, p := range []Provider{
		{Name: "Acme", ID: acmeID},
		{Name: "Bolt", ID: boltID},
		{Name: "Lime", ID: limeID},
	} {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Name, err)
		}
	}
	return r
}

func names(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	p1 := Provider{Name: "Acme", ID: acmeID}

	if err := r.Register(p1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := r.Register(p1); err == nil {
		t.Fatal("expected error for duplicate registration, got nil")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := testRegistry(t)

	retrieved, ok := r.Get(boltID)
	if !ok {
		t.Fatal("expected to find provider, but didn't")
	}
	if retrieved.Name != "Bolt" {
		t.Errorf("expected provider 'Bolt', got '%s'", retrieved.Name)
	}

	if _, ok := r.Get(otherID); ok {
		t.Fatal("expected not to find provider, but did")
	}
}

func TestRegistry_AllKeepsRegistrationOrder(t *testing.T) {
	r := testRegistry(t)

	want := []string{"Acme", "Bolt", "Lime"}
	if got := names(r.All()); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if r.Len() != 3 {
		t.Errorf("expected Len 3, got %d", r.Len())
	}
}

func TestFilter_NoSelectorsReturnsEverything(t *testing.T) {
	r := testRegistry(t)

	got := r.Filter(nil)
	if !reflect.DeepEqual(got, r.All()) {
		t.Errorf("expected full registry, got %v", names(got))
	}
}

func TestFilter_ByUUIDIgnoresCase(t *testing.T) {
	r := testRegistry(t)

	sels := ParseSelectors([]string{strings.ToUpper(boltID.String())})
	if _, ok := sels[0].(IDSelector); !ok {
		t.Fatalf("expected IDSelector, got %T", sels[0])
	}

	got := r.Filter(sels)
	if len(got) != 1 || got[0].ID != boltID {
		t.Errorf("expected only Bolt, got %v", names(got))
	}
}

func TestFilter_ByNameIsCaseInsensitive(t *testing.T) {
	r := testRegistry(t)

	for _, tok := range []string{"Acme", "acme", "ACME"} {
		got := r.Filter(ParseSelectors([]string{tok}))
		if len(got) != 1 || got[0].Name != "Acme" {
			t.Errorf("%q: expected Acme, got %v", tok, names(got))
		}
	}
}

func TestFilter_OrderFollowsRegistry(t *testing.T) {
	r := testRegistry(t)

	got := r.Filter(ParseSelectors([]string{"lime", acmeID.String()}))
	want := []string{"Acme", "Lime"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("expected %v, got %v", want, names(got))
	}
}

func TestFilter_CommaSeparatedAndUnmatched(t *testing.T) {
	r := testRegistry(t)

	got := r.Filter(ParseSelectors([]string{"bolt, lime", " ", otherID.String()}))
	want := []string{"Bolt", "Lime"}
	if !reflect.DeepEqual(names(got), want) {
		t.Errorf("expected %v, got %v", want, names(got))
	}

	if got := r.Filter(ParseSelectors([]string{"nobody"})); len(got) != 0 {
		t.Errorf("expected empty result, got %v", names(got))
	}
}

func TestAuthConfig_Scheme(t *testing.T) {
	if got := (AuthConfig{}).Scheme(); got != "Bearer" {
		t.Errorf("expected default Bearer, got %q", got)
	}
	if got := (AuthConfig{Type: "Token"}).Scheme(); got != "Token" {
		t.Errorf("expected Token, got %q", got)
	}
}
