package msteams_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/crestwatch"
	"github.com/fwojciec/crestwatch/msteams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	update1 = crestwatch.Record{Date: "2024-01-01", Name: "Update1", Link: "https://crestron.com/a", Kind: "Firmware"}
	update2 = crestwatch.Record{Date: "2024-01-02", Name: "Update2", Link: "https://crestron.com/b", Kind: "Software"}
)

func TestFormatter_Card(t *testing.T) {
	t.Parallel()

	t.Run("renders three facts per record", func(t *testing.T) {
		t.Parallel()

		card := msteams.NewFormatter().Card(crestwatch.UpdateSet{update1, update2})

		require.Len(t, card.Sections, 1)
		assert.Equal(t, []msteams.Fact{
			{Name: "Name:", Value: "[Update1](https://crestron.com/a)"},
			{Name: "Date Released:", Value: "2024-01-01"},
			{Name: "Type:", Value: "**Firmware**"},
			{Name: "Name:", Value: "[Update2](https://crestron.com/b)"},
			{Name: "Date Released:", Value: "2024-01-02"},
			{Name: "Type:", Value: "**Software**"},
		}, card.Sections[0].Facts)
	})

	t.Run("serializes to the MessageCard schema", func(t *testing.T) {
		t.Parallel()

		payload, err := msteams.NewFormatter().Format(crestwatch.UpdateSet{update1})
		require.NoError(t, err)

		b, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"@type": "MessageCard",
			"@context": "https://schema.org/extensions",
			"summary": "Latest updates from Crestron",
			"themeColor": "0078D7",
			"sections": [{"facts": [
				{"name": "Name:", "value": "[Update1](https://crestron.com/a)"},
				{"name": "Date Released:", "value": "2024-01-01"},
				{"name": "Type:", "value": "**Firmware**"}
			]}]
		}`, string(b))
	})

	t.Run("empty set has an empty facts array", func(t *testing.T) {
		t.Parallel()

		payload, err := msteams.NewFormatter().Format(nil)
		require.NoError(t, err)

		b, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"facts":[]`)
	})

	t.Run("repeated calls do not accumulate facts", func(t *testing.T) {
		t.Parallel()

		f := msteams.NewFormatter()
		f.Card(crestwatch.UpdateSet{update1, update2})
		card := f.Card(crestwatch.UpdateSet{update1})

		assert.Len(t, card.Sections[0].Facts, 3)
	})

	t.Run("non-firmware labels render as software", func(t *testing.T) {
		t.Parallel()

		card := msteams.NewFormatter().Card(crestwatch.UpdateSet{{Kind: "Driver"}})

		assert.Equal(t, "**Software**", card.Sections[0].Facts[2].Value)
	})

	t.Run("strict kinds render unknown labels as unknown", func(t *testing.T) {
		t.Parallel()

		card := msteams.NewFormatter(msteams.WithStrictKinds(true)).Card(crestwatch.UpdateSet{{Kind: "Driver"}})

		assert.Equal(t, "**Unknown**", card.Sections[0].Facts[2].Value)
	})
}

func TestFormatter_Deterministic(t *testing.T) {
	t.Parallel()

	f := msteams.NewFormatter()
	set := crestwatch.UpdateSet{update1, update2}

	first, err := f.Format(set)
	require.NoError(t, err)
	second, err := f.Format(set)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
