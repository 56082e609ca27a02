package model

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/domain"
	"loan-eligibility/encoder"
	"loan-eligibility/forest"
	"loan-eligibility/generator"
	"loan-eligibility/rules"
)

func trainedBundle(t *testing.T) (*Bundle, [][]float64) {
	t.Helper()

	records, err := generator.New(generator.DefaultConfig()).GenerateLabelled(400, rules.DefaultPolicy().Label)
	require.NoError(t, err)

	applicants := make([]domain.Applicant, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		applicants[i] = r.Applicant
		y[i] = r.Label.Index()
	}

	profile, err := encoder.Fit(applicants)
	require.NoError(t, err)
	x, err := encoder.Transform(profile, applicants)
	require.NoError(t, err)

	cfg := forest.DefaultConfig()
	cfg.NumTrees = 10
	cfg.MinSamplesSplit = 10
	cfg.MinSamplesLeaf = 5
	f, err := forest.Fit(context.Background(), x, y, cfg)
	require.NoError(t, err)

	return NewBundle(profile, f, Report{TrainSize: 320, TestSize: 80}), x
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	b, x := trainedBundle(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b))
	assert.NotEmpty(t, b.Metadata.Checksum)
	assert.Positive(t, b.Metadata.SizeBytes)

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, b.Metadata.ID, got.Metadata.ID)
	assert.Equal(t, 10, got.Metadata.NumTrees)
	assert.Equal(t, 320, got.Metadata.TrainingSize)
	assert.Equal(t, b.Profile.EmploymentCategories(), got.Profile.EmploymentCategories())
	assert.Equal(t, b.Profile.Mean(), got.Profile.Mean())

	want, err := b.Forest.PredictProba(x)
	require.NoError(t, err)
	have, err := got.Forest.PredictProba(x)
	require.NoError(t, err)
	assert.Equal(t, want, have)
}

func TestMarshalUnmarshal(t *testing.T) {
	b, _ := trainedBundle(t)
	data, err := Marshal(b)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, b.Metadata.Checksum, got.Metadata.Checksum)
}

func TestDecode_MissingComponents(t *testing.T) {
	full, _ := trainedBundle(t)

	tests := []struct {
		name    string
		bundle  *Bundle
		missing string
	}{
		{"no forest", &Bundle{Metadata: full.Metadata, Profile: full.Profile}, "forest"},
		{"no profile", &Bundle{Metadata: full.Metadata, Forest: full.Forest}, "category mappings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.bundle)
			require.NoError(t, err)

			_, err = Unmarshal(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrIncompleteArtifact))

			var aerr *domain.IncompleteArtifactError
			require.True(t, errors.As(err, &aerr))
			assert.Equal(t, tt.missing, aerr.Missing)
		})
	}
}

func TestDecode_Corrupted(t *testing.T) {
	b, _ := trainedBundle(t)
	data, err := Marshal(b)
	require.NoError(t, err)

	_, err = Unmarshal(data[:len(data)/2])
	assert.Error(t, err)

	_, err = Unmarshal([]byte("not a model"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	b, _ := trainedBundle(t)
	assert.NoError(t, b.Validate())

	var nilBundle *Bundle
	assert.ErrorIs(t, nilBundle.Validate(), domain.ErrIncompleteArtifact)

	b.Forest = &forest.Forest{}
	assert.ErrorIs(t, b.Validate(), domain.ErrIncompleteArtifact)
}

func TestScore(t *testing.T) {
	actual := []int{1, 1, 1, 0, 0, 0, 0, 1}
	predicted := []int{1, 1, 0, 0, 0, 1, 0, 1}
	r := Score(actual, predicted)

	assert.Equal(t, [2][2]int{{3, 1}, {1, 3}}, r.Confusion)
	assert.InDelta(t, 0.75, r.Accuracy, 1e-12)
	assert.InDelta(t, 0.75, r.Precision, 1e-12)
	assert.InDelta(t, 0.75, r.Recall, 1e-12)
	assert.InDelta(t, 0.75, r.F1, 1e-12)
}

func TestScore_NoPositives(t *testing.T) {
	r := Score([]int{0, 0}, []int{0, 0})
	assert.Equal(t, 1.0, r.Accuracy)
	assert.Equal(t, 0.0, r.Precision)
	assert.Equal(t, 0.0, r.F1)
}

func TestReport_String(t *testing.T) {
	r := Score([]int{1, 0}, []int{1, 0})
	r.LabelDistribution = map[domain.Label]int{domain.Eligible: 7, domain.NotEligible: 3}
	s := r.String()
	assert.Contains(t, s, "accuracy  1.0000")
	assert.Contains(t, s, "Eligible      7")
}
