package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only spaces", input: "   \t ", want: ""},
		{name: "reference token", input: "ZELLE TO JANE DOE REF 12345", want: "ZELLE TO JANE DOE"},
		{name: "hash reference", input: "ONLINE PAYMENT ref#AB-991 THANK YOU", want: "ONLINE PAYMENT THANK YOU"},
		{name: "confirmation token", input: "VENMO CASHOUT conf: AB99 DONE", want: "VENMO CASHOUT DONE"},
		{name: "masked account x", input: "ONLINE TRANSFER FROM SAVINGS XXXXXX4311", want: "ONLINE TRANSFER FROM SAVINGS"},
		{name: "masked account stars", input: "CARD PAYMENT ****1234 PORTAL", want: "CARD PAYMENT PORTAL"},
		{name: "date tail", input: "TRANSFER TO CHECKING ON 08/12/2025 SOMETHING", want: "TRANSFER TO CHECKING"},
		{name: "short date tail", input: "ZELLE TO BOB ON 08/12", want: "ZELLE TO BOB"},
		{name: "account phrase", input: "AUTOPAY CHASE CARD ending in 4411", want: "AUTOPAY CHASE CARD"},
		{name: "recurring word", input: "NETFLIX RECURRING PAYMENT", want: "NETFLIX PAYMENT"},
		{name: "collapse and trim", input: "  - WHOLE   FOODS  MARKET :, ", want: "WHOLE FOODS MARKET"},
		{
			name:  "full noisy line",
			input: "ONLINE TRANSFER REF #IB0THMKLQP FROM PERSONAL LINE OF CREDIT XXXXXX4311 ON 08/12/25",
			want:  "ONLINE TRANSFER FROM PERSONAL LINE OF CREDIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_MaskedSuffixesConverge(t *testing.T) {
	a := Normalize("ONLINE TRANSFER TO SAVINGS XXXXXX4311 REF 1111")
	b := Normalize("ONLINE TRANSFER TO SAVINGS XXXXXX9981 REF 2222")
	assert.Equal(t, a, b)
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("ZELLE PAYMENT TO JOHN SMITH CONF# 8812 ON 01/02/2024")
	assert.Equal(t, once, Normalize(once))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Jane Doe", TitleCase("JANE   DOE"))
	assert.Equal(t, "Personal Line Of Credit", TitleCase("personal line of credit"))
	assert.Equal(t, "", TitleCase("  "))
}

func TestDequoteAndHandles(t *testing.T) {
	assert.Equal(t, "Amazon", Dequote(` "Amazon" `))
	assert.True(t, IsHandleOrEmail("@jsmith"))
	assert.True(t, IsHandleOrEmail("bob@example.com"))
	assert.False(t, IsHandleOrEmail("Bob"))
}
