package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBody(t *testing.T) {
	flat := Parse([]byte(`{"action":"register","first_name":"Jo","age":42,"active":true}`), "application/json")
	require.NotNil(t, flat)

	assert.Equal(t, String("register"), flat["action"])
	assert.Equal(t, String("Jo"), flat["first_name"])
	assert.Equal(t, String("42"), flat["age"])
	assert.Equal(t, String("true"), flat["active"])
}

func TestParseFallsBackToFormEncoding(t *testing.T) {
	flat := Parse([]byte(`action=register&first_name=Jo&advisor_code=SFG`), "application/x-www-form-urlencoded")
	require.NotNil(t, flat)

	assert.Equal(t, String("register"), flat["action"])
	assert.Equal(t, String("Jo"), flat["first_name"])
}

func TestParseUnusableBody(t *testing.T) {
	assert.Nil(t, Parse([]byte(``), "application/json"))
	assert.Nil(t, Parse([]byte(`{}`), "application/json"))
	assert.Nil(t, Parse([]byte(`[1,2,3]`), "application/json"))
	assert.Nil(t, Parse([]byte(`not json and not a form %zz`), "text/plain"))
}

func TestParseExplicitNull(t *testing.T) {
	flat := Parse([]byte(`{"first_name":null,"action":"register"}`), "application/json")
	require.NotNil(t, flat)

	v, ok := flat["first_name"]
	require.True(t, ok, "explicit null must survive parsing, it means 'clear this field'")
	assert.Equal(t, KindNull, v.Kind)
}

func TestFlattenHoistsOneLevel(t *testing.T) {
	flat := Parse([]byte(`{
		"action": "register",
		"contact": {"first_name": "Jo", "last_name": "Doe"},
		"customData": {"advisor_code": "SFG"}
	}`), "application/json")
	require.NotNil(t, flat)

	assert.Equal(t, String("Jo"), flat["first_name"])
	assert.Equal(t, String("Doe"), flat["last_name"])
	assert.Equal(t, String("SFG"), flat["advisor_code"])
	_, hasContainer := flat["contact"]
	assert.False(t, hasContainer, "flattened containers are removed")
}

func TestFlattenTopLevelWins(t *testing.T) {
	flat := Parse([]byte(`{
		"first_name": "Top",
		"contact": {"first_name": "Nested"}
	}`), "application/json")
	require.NotNil(t, flat)

	assert.Equal(t, String("Top"), flat["first_name"])
}

func TestFlattenDropsDeepNestingAndArrays(t *testing.T) {
	flat := Parse([]byte(`{
		"contact": {"tags": ["a", "b"], "address": {"city": "Denver"}, "first_name": "Jo"}
	}`), "application/json")
	require.NotNil(t, flat)

	assert.Equal(t, String("Jo"), flat["first_name"])
	_, hasTags := flat["tags"]
	assert.False(t, hasTags, "arrays inside containers are not hoisted")
	_, hasCity := flat["city"]
	assert.False(t, hasCity, "only one level of nesting is flattened")
}

func TestGetString(t *testing.T) {
	flat := map[string]Value{
		"advisorCode": String(" SFG "),
		"empty":       String("   "),
		"nullish":     Null(),
	}

	assert.Equal(t, "SFG", GetString(flat, "advisor_code", "advisorCode"))
	assert.Equal(t, "", GetString(flat, "empty"))
	assert.Equal(t, "", GetString(flat, "nullish"))
	assert.Equal(t, "", GetString(flat, "missing"))
}
