package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "plain", input: "Data Scientist", want: []string{"data", "scientist"}},
		{name: "punctuation", input: "ML/AI Engineer (Remote)", want: []string{"ml", "ai", "engineer", "remote"}},
		{name: "single letters dropped", input: "BI Data Analyst I", want: []string{"bi", "data", "analyst"}},
		{name: "fullwidth folded", input: "Ｄａｔａ Engineer", want: []string{"data", "engineer"}},
		{name: "underscore kept", input: "data_ops lead", want: []string{"data_ops", "lead"}},
		{name: "empty", input: "   ", want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Tokenize(tc.input, 2))
		})
	}
}

func TestParseWholeNumber(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "2023", want: 2023},
		{input: " 2021 ", want: 2021},
		{input: "2022.0", want: 2022},
		{input: "2022.5", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "NaN", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseWholeNumber(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "a_b_c.csv", SanitizeFileName("a b/c.csv"))
}
