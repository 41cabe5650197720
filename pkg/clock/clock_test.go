package clock

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Time
	}{
		{name: "afternoon", input: "2:30 pm", want: Time{Hour: 2, Minute: 30, Period: PM}},
		{name: "upper case", input: "2:30 PM", want: Time{Hour: 2, Minute: 30, Period: PM}},
		{name: "no space", input: "9:05am", want: Time{Hour: 9, Minute: 5, Period: AM}},
		{name: "padded hour", input: "09:00 am", want: Time{Hour: 9, Minute: 0, Period: AM}},
		{name: "surrounding whitespace", input: "  11:45 Pm ", want: Time{Hour: 11, Minute: 45, Period: PM}},
		{name: "midnight", input: "12:00 am", want: Time{Hour: 12, Minute: 0, Period: AM}},
		{name: "empty is unset", input: "", want: Unset},
		{name: "dashes are unset", input: "--", want: Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	inputs := []string{"noon", "14:00", "0:30 am", "13:00 pm", "9:60 am", "9:5 am", "9:00 xm", "9:00  am", "9:00 am later"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got, err := Parse(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTimeFormat))
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, input, parseErr.Input)
			assert.True(t, got.IsUnset())
		})
	}
}

func TestUnsetNeverBecomesNoon(t *testing.T) {
	for _, input := range []string{"", "--"} {
		got, err := Parse(input)
		require.NoError(t, err)
		assert.True(t, got.IsUnset())
		assert.NotEqual(t, MustParse("12:00 pm"), got)
		assert.Equal(t, UnsetDisplay, got.String())
		assert.Equal(t, 0, ToMinutes(got))
	}
}

func TestToMinutes(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"12:00 am", 0},
		{"12:15 am", 15},
		{"1:00 am", 60},
		{"9:30 am", 570},
		{"12:00 pm", 720},
		{"12:59 pm", 779},
		{"1:00 pm", 780},
		{"11:59 pm", 1439},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParse(tt.input).Minutes())
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "12:00 am"},
		{5, "12:05 am"},
		{540, "9:00 am"},
		{720, "12:00 pm"},
		{810, "1:30 pm"},
		{1439, "11:59 pm"},
		{1440, "12:00 am"},
		{-15, "11:45 pm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.minutes))
	}
}

func TestRoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m++ {
		original := FromMinutes(m)
		parsed, err := Parse(Format(ToMinutes(original)))
		require.NoError(t, err)
		require.Equal(t, original, parsed, "minute %d", m)
	}
}

func TestNewValidates(t *testing.T) {
	got, err := New(3, 15, "PM")
	require.NoError(t, err)
	assert.Equal(t, "3:15 pm", got.String())

	_, err = New(0, 0, AM)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	_, err = New(12, 60, PM)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestTimeJSON(t *testing.T) {
	payload := struct {
		At    Time `json:"at"`
		Later Time `json:"later"`
	}{At: MustParse("8:00 AM")}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"8:00 am","later":"--"}`, string(raw))

	var decoded struct {
		At Time `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"4:45 PM"}`), &decoded))
	assert.Equal(t, MustParse("4:45 pm"), decoded.At)

	err = json.Unmarshal([]byte(`{"at":"teatime"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("later") })
}
