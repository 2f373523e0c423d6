package support

import (
	"fmt"
	"math"
	"net/http"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/server"
	"github.com/MeKo-Tech/pitchmap/internal/testutil"
)

func (testCtx *TestContext) calibrate(c testutil.Correspondences, sessionID string) error {
	return testCtx.postJSON("/calibrate", server.CalibrateRequest{
		VideoPoints: c.VideoPairs(),
		PitchPoints: c.PitchPairs(),
		SessionID:   sessionID,
	})
}

// iCalibrateSessionWithTheUniformScaleCorrespondences posts the 100x60 px to 10x6 m rectangle.
func (testCtx *TestContext) iCalibrateSessionWithTheUniformScaleCorrespondences(sessionID string) error {
	return testCtx.calibrate(testutil.UniformScale(), sessionID)
}

func (testCtx *TestContext) sessionIsCalibratedWithTheUniformScaleCorrespondences(sessionID string) error {
	if err := testCtx.calibrate(testutil.UniformScale(), sessionID); err != nil {
		return err
	}
	return testCtx.theResponseStatusShouldBe(http.StatusOK)
}

func (testCtx *TestContext) theDefaultSessionIsCalibratedWithTheUniformScaleCorrespondences() error {
	return testCtx.sessionIsCalibratedWithTheUniformScaleCorrespondences("")
}

func (testCtx *TestContext) iCalibrateWithTheBroadcastViewCorrespondences() error {
	return testCtx.calibrate(testutil.BroadcastView(), "")
}

// iCalibrateWithAMisclickAtIndex replaces one pitch landmark with a point far off the pitch.
func (testCtx *TestContext) iCalibrateWithAMisclickAtIndex(index int) error {
	view := testutil.BroadcastView()
	if index < 0 || index >= len(view.Pitch) {
		return fmt.Errorf("misclick index %d out of range", index)
	}
	return testCtx.calibrate(testutil.WithMisclick(view, index, geometry.Point{X: 30, Y: -25}), "")
}

func (testCtx *TestContext) iBatchTransformTheBroadcastViewVideoPoints() error {
	return testCtx.postJSON("/batch-transform", server.BatchTransformRequest{
		VideoPoints: testutil.BroadcastView().VideoPairs(),
	})
}

// theBatchResultShouldMatchThePitchLandmarksWithin compares pitch_points to the landmarks.
func (testCtx *TestContext) theBatchResultShouldMatchThePitchLandmarksWithin(tolerance float64) error {
	v, err := testCtx.field("pitch_points")
	if err != nil {
		return err
	}
	got, ok := v.([]interface{})
	if !ok || len(got) != len(testutil.PitchLandmarks) {
		return fmt.Errorf("expected %d pitch points, got %v", len(testutil.PitchLandmarks), v)
	}
	for i, want := range testutil.PitchLandmarks {
		x, errX := testCtx.number(fmt.Sprintf("pitch_points.%d.0", i))
		y, errY := testCtx.number(fmt.Sprintf("pitch_points.%d.1", i))
		if errX != nil || errY != nil {
			return fmt.Errorf("pitch point %d is malformed: %v", i, got[i])
		}
		if d := math.Hypot(x-want.X, y-want.Y); d > tolerance {
			return fmt.Errorf("pitch point %d is (%g, %g), %g m from landmark (%g, %g)", i, x, y, d, want.X, want.Y)
		}
	}
	return nil
}

// iRememberTheCalibratedMatrixAs stores the matrix of the last calibration response.
func (testCtx *TestContext) iRememberTheCalibratedMatrixAs(name string) error {
	v, err := testCtx.field("matrix")
	if err != nil {
		return err
	}
	rows, ok := v.([]interface{})
	if !ok || len(rows) != 3 {
		return fmt.Errorf("matrix is not 3x3: %v", v)
	}

	m := make([][]float64, 3)
	for i := range rows {
		m[i] = make([]float64, 3)
		for j := 0; j < 3; j++ {
			f, err := testCtx.number(fmt.Sprintf("matrix.%d.%d", i, j))
			if err != nil {
				return err
			}
			m[i][j] = f
		}
	}
	testCtx.Matrices[name] = m
	return nil
}

func (testCtx *TestContext) theServerShouldHoldSessions(n int) error {
	if got := testCtx.API.Service().Registry().Len(); got != n {
		return fmt.Errorf("expected %d sessions, got %d", n, got)
	}
	return nil
}

// RegisterCalibrationSteps registers steps that drive calibrations with fixture data.
func (testCtx *TestContext) RegisterCalibrationSteps(sc *godog.ScenarioContext) {
	sc.Step(`^session "([^"]*)" is calibrated with the uniform scale correspondences$`,
		testCtx.sessionIsCalibratedWithTheUniformScaleCorrespondences)
	sc.Step(`^the default session is calibrated with the uniform scale correspondences$`,
		testCtx.theDefaultSessionIsCalibratedWithTheUniformScaleCorrespondences)
	sc.Step(`^I calibrate session "([^"]*)" with the uniform scale correspondences$`,
		testCtx.iCalibrateSessionWithTheUniformScaleCorrespondences)
	sc.Step(`^I calibrate with the broadcast view correspondences$`,
		testCtx.iCalibrateWithTheBroadcastViewCorrespondences)
	sc.Step(`^I calibrate with the broadcast view correspondences and a misclick at index (\d+)$`,
		testCtx.iCalibrateWithAMisclickAtIndex)
	sc.Step(`^I batch transform the broadcast view video points$`,
		testCtx.iBatchTransformTheBroadcastViewVideoPoints)
	sc.Step(`^the batch result should match the pitch landmarks within (\d+(?:\.\d+)?(?:e-?\d+)?) meters$`,
		testCtx.theBatchResultShouldMatchThePitchLandmarksWithin)
	sc.Step(`^I remember the calibrated matrix as "([^"]*)"$`, testCtx.iRememberTheCalibratedMatrixAs)
	sc.Step(`^the server should hold (\d+) sessions?$`, testCtx.theServerShouldHoldSessions)
}
