package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestMapFieldsAliasGroups(t *testing.T) {
	cases := []struct {
		key    string
		column string
	}{
		{"workshop_date", "workshop_date"},
		{"workshopDate", "workshop_date"},
		{"Workshop Date", "workshop_date"},
		{"Workshop Appointment Date", "workshop_date"},
		{"cell_phone", "cell_phone"},
		{"cellPhone", "cell_phone"},
		{"Cell Phone", "cell_phone"},
		{"Department/Agency", "agency"},
		{"Lunch Options (Fed)", "food_option_fed"},
		{"Timeline for retirement", "time_frame_for_retirement"},
		{"Workshop Status", "status"},
	}

	for _, tc := range cases {
		flat := map[string]Value{tc.key: String("2024-05-01")}
		mapped := MapFields(flat)
		require.Contains(t, mapped, tc.column, "alias %q", tc.key)
	}
}

func TestMapFieldsSnakeCaseWinsOverCamelCase(t *testing.T) {
	mapped := MapFields(map[string]Value{
		"first_name": String("Snake"),
		"firstName":  String("Camel"),
	})

	require.Contains(t, mapped, "first_name")
	assert.Equal(t, str("Snake"), mapped["first_name"])
}

func TestMapFieldsSnakeCaseWinsOverLabel(t *testing.T) {
	mapped := MapFields(map[string]Value{
		"Cell Phone": String("555-0000"),
		"cell_phone": String("555-1111"),
	})

	assert.Equal(t, str("555-1111"), mapped["cell_phone"])
}

func TestMapFieldsDropsUnknownAndReserved(t *testing.T) {
	mapped := MapFields(map[string]Value{
		"action":        String("register"),
		"advisor_code":  String("SFG"),
		"advisorCode":   String("SFG"),
		"totally_bogus": String("x"),
		"first_name":    String("Jo"),
	})

	assert.Len(t, mapped, 1)
	assert.Equal(t, str("Jo"), mapped["first_name"])
}

func TestMapFieldsDropsNonScalars(t *testing.T) {
	mapped := MapFields(map[string]Value{
		"first_name": {Kind: KindUnsupported},
		"last_name":  String("Doe"),
	})

	assert.NotContains(t, mapped, "first_name")
	assert.Equal(t, str("Doe"), mapped["last_name"])
}

func TestMapFieldsNullAndEmptyBecomeNil(t *testing.T) {
	mapped := MapFields(map[string]Value{
		"first_name": Null(),
		"last_name":  String(""),
		"city":       String("  "),
	})

	require.Contains(t, mapped, "first_name")
	require.Contains(t, mapped, "last_name")
	require.Contains(t, mapped, "city")
	assert.Nil(t, mapped["first_name"])
	assert.Nil(t, mapped["last_name"])
	assert.Nil(t, mapped["city"])
}

func TestSanitizeDateCanonicalPassesThrough(t *testing.T) {
	got := SanitizeValue("workshop_date", String("2024-03-05"))
	assert.Equal(t, str("2024-03-05"), got)
}

func TestSanitizeDateReformatsLooseInput(t *testing.T) {
	cases := map[string]string{
		"2024-3-5":             "2024-03-05",
		"03/05/2024":           "2024-03-05",
		"3/5/2024":             "2024-03-05",
		"March 5, 2024":        "2024-03-05",
		"2024-03-05T10:30:00Z": "2024-03-05",
	}

	for in, want := range cases {
		got := SanitizeValue("workshop_date", String(in))
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
}

func TestSanitizeDateUnparseableStoresNull(t *testing.T) {
	assert.Nil(t, SanitizeValue("workshop_date", String("next tuesday-ish")))
	assert.Nil(t, SanitizeValue("date_of_lead_request", String("TBD")))
}

func TestSanitizeNonDateTrims(t *testing.T) {
	got := SanitizeValue("first_name", String("  Jo  "))
	assert.Equal(t, str("Jo"), got)
}
