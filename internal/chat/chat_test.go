package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCustomID(t *testing.T) {
	tests := map[string]string{
		"exchange_select":       "exchange_select",
		"exchange_select_v2":    "exchange_select",
		"exchange_select_v3":    "exchange_select",
		"exchange_select_v4":    "exchange_select",
		"crypto_send_select_v4": "crypto_send_select",
		"amount_modal":          "amount_modal",
		"_v3":                   "_v3",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeCustomID(in), in)
	}
}

func TestEmbedWithFieldDoesNotAlias(t *testing.T) {
	base := Embed{Title: "t", Fields: make([]EmbedField, 1, 4)}
	a := base.WithField(EmbedField{Name: "a"})
	b := base.WithField(EmbedField{Name: "b"})
	assert.Equal(t, "a", a.Fields[1].Name)
	assert.Equal(t, "b", b.Fields[1].Name)
	assert.Len(t, base.Fields, 1)
}

func TestEventAccessors(t *testing.T) {
	ev := Event{
		Values:  []string{"zelle"},
		Fields:  map[string]string{IDAmountInput: "100"},
		Options: map[string]string{"amount": "10.5"},
	}
	assert.Equal(t, "zelle", ev.Value())
	assert.Equal(t, "100", ev.Field(IDAmountInput))
	assert.Equal(t, "10.5", ev.Option("amount"))
	assert.Equal(t, "", Event{}.Value())
	assert.Equal(t, "select", KindSelect.String())
}
