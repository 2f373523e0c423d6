package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/session"
	"github.com/MeKo-Tech/pitchmap/internal/testutil"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(session.NewRegistry(""), homography.DefaultOptions())
	require.NoError(t, err)
	return svc
}

func calibrateScale(t *testing.T, svc *Service, id string) CalibrateResult {
	t.Helper()
	c := testutil.UniformScale()
	res, err := svc.Calibrate(CalibrateRequest{VideoPoints: c.Video, PitchPoints: c.Pitch, SessionID: id})
	require.NoError(t, err)
	return res
}

func TestNewService(t *testing.T) {
	svc, err := NewService(nil, homography.DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, svc.Registry())
	assert.Equal(t, homography.DefaultOptions(), svc.Options())

	bad := homography.DefaultOptions()
	bad.MaxIterations = 0
	_, err = NewService(nil, bad)
	assert.Error(t, err)
}

func TestCalibrate(t *testing.T) {
	svc := newTestService(t)

	res := calibrateScale(t, svc, "")
	assert.Equal(t, session.DefaultID, res.SessionID)
	assert.InDelta(t, 0.0, res.ReprojectionError, 1e-9)
	assert.Equal(t, 4, res.InlierCount)
	assert.Equal(t, "Calibration successful with 4 points. Reprojection error: 0.00m", res.Message)

	stored, err := svc.Registry().Get(session.DefaultID)
	require.NoError(t, err)
	assert.Equal(t, res.Matrix, stored)
}

func TestCalibrate_InvalidInputLeavesRegistryUntouched(t *testing.T) {
	svc := newTestService(t)
	c := testutil.UniformScale()

	_, err := svc.Calibrate(CalibrateRequest{VideoPoints: c.Video[:3], PitchPoints: c.Pitch[:3], SessionID: "A"})
	assert.ErrorIs(t, err, homography.ErrInvalidInput)

	_, err = svc.Calibrate(CalibrateRequest{VideoPoints: c.Video, PitchPoints: c.Pitch[:3], SessionID: "A"})
	assert.ErrorIs(t, err, homography.ErrInvalidInput)

	assert.Equal(t, 0, svc.Registry().Len())
}

func TestCalibrate_FailureKeepsPreviousTransform(t *testing.T) {
	svc := newTestService(t)
	first := calibrateScale(t, svc, "A")

	collinear := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	_, err := svc.Calibrate(CalibrateRequest{VideoPoints: collinear, PitchPoints: collinear, SessionID: "A"})
	assert.ErrorIs(t, err, homography.ErrSingularTransform)

	stored, err := svc.Registry().Get("A")
	require.NoError(t, err)
	assert.Equal(t, first.Matrix, stored)
}

func TestTransform(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "")

	p, res, err := svc.Transform(geometry.Point{X: 50, Y: 30}, Target{})
	require.NoError(t, err)
	assert.Equal(t, session.SourceSession, res.Source)
	assert.InDelta(t, 5.0, p.X, 1e-9)
	assert.InDelta(t, 3.0, p.Y, 1e-9)
}

func TestTransform_ExplicitMatrix(t *testing.T) {
	svc := newTestService(t)
	explicit := homography.Matrix{{2, 0, 0}, {0, 2, 0}, {0, 0, 1}}

	p, res, err := svc.Transform(geometry.Point{X: 1, Y: 2}, Target{Matrix: &explicit, SessionID: "A"})
	require.NoError(t, err)
	assert.Equal(t, session.SourceExplicit, res.Source)
	assert.Equal(t, geometry.Point{X: 2, Y: 4}, p)
	assert.Equal(t, 0, svc.Registry().Len(), "explicit matrix must not be stored")
}

func TestTransform_NoTransformAvailable(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Transform(geometry.Point{X: 1, Y: 1}, Target{})
	assert.ErrorIs(t, err, session.ErrNoTransformAvailable)

	_, _, err = svc.BatchTransform([]geometry.Point{{X: 1, Y: 1}}, Target{SessionID: "A"})
	assert.ErrorIs(t, err, session.ErrNoTransformAvailable)

	_, _, err = svc.InverseTransform(geometry.Point{X: 1, Y: 1}, Target{})
	assert.ErrorIs(t, err, session.ErrNoTransformAvailable)

	_, err = svc.Distance(geometry.Point{}, geometry.Point{X: 1, Y: 1}, Target{})
	assert.ErrorIs(t, err, session.ErrNoTransformAvailable)
}

func TestSessionIsolation(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "A")

	_, _, err := svc.Transform(geometry.Point{X: 1, Y: 1}, Target{SessionID: "B"})
	assert.ErrorIs(t, err, session.ErrNoTransformAvailable)

	// Re-calibrating A with a doubled pitch overwrites the first result.
	c := testutil.UniformScale()
	doubled := make([]geometry.Point, len(c.Pitch))
	for i, p := range c.Pitch {
		doubled[i] = geometry.Point{X: p.X * 2, Y: p.Y * 2}
	}
	_, err = svc.Calibrate(CalibrateRequest{VideoPoints: c.Video, PitchPoints: doubled, SessionID: "A"})
	require.NoError(t, err)

	p, _, err := svc.Transform(geometry.Point{X: 50, Y: 30}, Target{SessionID: "A"})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, p.X, 1e-9)
	assert.InDelta(t, 6.0, p.Y, 1e-9)
}

func TestBatchTransform(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "")

	in := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}}
	out, _, err := svc.BatchTransform(in, Target{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		assert.InDelta(t, in[i].X/10, out[i].X, 1e-9)
		assert.InDelta(t, in[i].Y/10, out[i].Y, 1e-9)
	}

	vanishing := homography.Matrix{{1, 0, 0}, {0, 1, 0}, {0, -1, 1}}
	out, _, err = svc.BatchTransform([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, Target{Matrix: &vanishing})
	assert.ErrorIs(t, err, homography.ErrDegenerateProjection)
	assert.Nil(t, out)
}

func TestInverseTransform(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "")

	p, _, err := svc.InverseTransform(geometry.Point{X: 5, Y: 3}, Target{})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, p.X, 1e-7)
	assert.InDelta(t, 30.0, p.Y, 1e-7)

	singular := homography.Matrix{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}
	_, _, err = svc.InverseTransform(geometry.Point{X: 5, Y: 3}, Target{Matrix: &singular})
	assert.ErrorIs(t, err, homography.ErrSingularTransform)
}

func TestDistance(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "")

	res, err := svc.Distance(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 31.4, Y: 40}, Target{})
	require.NoError(t, err)
	// sqrt(3.14² + 4²) = 5.0853...
	assert.Equal(t, 5.1, res.Distance)
	assert.InDelta(t, 3.14, res.Pitch2.X, 1e-9)
	assert.InDelta(t, 4.0, res.Pitch2.Y, 1e-9)
	assert.Equal(t, session.SourceSession, res.Source)

	reverse, err := svc.Distance(geometry.Point{X: 31.4, Y: 40}, geometry.Point{X: 0, Y: 0}, Target{})
	require.NoError(t, err)
	assert.Equal(t, res.Distance, reverse.Distance)
}

func TestForwardOperationsRejectSingularMatrix(t *testing.T) {
	svc := newTestService(t)
	calibrateScale(t, svc, "")
	collapsed := homography.Matrix{{1, 1, 0}, {1, 1, 0}, {0, 0, 1}}
	target := Target{Matrix: &collapsed}

	tests := []struct {
		name string
		run  func() error
	}{
		{"transform", func() error {
			_, _, err := svc.Transform(geometry.Point{X: 1, Y: 2}, target)
			return err
		}},
		{"batch transform", func() error {
			out, _, err := svc.BatchTransform([]geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}}, target)
			assert.Nil(t, out)
			return err
		}},
		{"distance", func() error {
			res, err := svc.Distance(geometry.Point{X: 1, Y: 2}, geometry.Point{X: 2, Y: 1}, target)
			assert.Zero(t, res)
			return err
		}},
		{"inverse transform", func() error {
			_, _, err := svc.InverseTransform(geometry.Point{X: 1, Y: 2}, target)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), homography.ErrSingularTransform)
		})
	}

	// The stored session transform is untouched by the rejected explicit matrix.
	p, res, err := svc.Transform(geometry.Point{X: 50, Y: 30}, Target{})
	require.NoError(t, err)
	assert.Equal(t, session.SourceSession, res.Source)
	assert.InDelta(t, 5.0, p.X, 1e-7)
}

func TestRoundDistance(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{5.04, 5.0},
		{5.06, 5.1},
		{12.349, 12.3},
		{104.96, 105.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundDistance(tt.in), "RoundDistance(%v)", tt.in)
	}
}
