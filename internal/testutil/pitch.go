package testutil

import (
	"github.com/MeKo-Tech/pitchmap/internal/geometry"
)

// Correspondences pairs video-space points with their pitch-space counterparts.
type Correspondences struct {
	Video []geometry.Point
	Pitch []geometry.Point
}

// Clone returns a deep copy so tests can perturb fixtures freely.
func (c Correspondences) Clone() Correspondences {
	return Correspondences{
		Video: append([]geometry.Point(nil), c.Video...),
		Pitch: append([]geometry.Point(nil), c.Pitch...),
	}
}

// VideoPairs returns the video points as [x, y] pairs.
func (c Correspondences) VideoPairs() [][]float64 { return geometry.ToPairs(c.Video) }

// PitchPairs returns the pitch points as [x, y] pairs.
func (c Correspondences) PitchPairs() [][]float64 { return geometry.ToPairs(c.Pitch) }

// UniformScale is a 100x60 pixel rectangle mapped onto a 10x6 meter rectangle.
func UniformScale() Correspondences {
	return Correspondences{
		Video: []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 60}, {X: 0, Y: 60}},
		Pitch: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 6}, {X: 0, Y: 6}},
	}
}

// BroadcastCamera maps pitch meters onto pixels for a synthetic elevated side-line camera.
var BroadcastCamera = [3][3]float64{
	{12, 3, 80},
	{0.5, -4, 620},
	{0.0015, 0.006, 1},
}

// PitchLandmarks are line intersections on a 105x68 m pitch.
var PitchLandmarks = []geometry.Point{
	{X: 0, Y: 0},
	{X: 105, Y: 0},
	{X: 105, Y: 68},
	{X: 0, Y: 68},
	{X: 52.5, Y: 0},
	{X: 52.5, Y: 68},
	{X: 52.5, Y: 34},
	{X: 16.5, Y: 13.84},
	{X: 16.5, Y: 54.16},
	{X: 88.5, Y: 13.84},
	{X: 88.5, Y: 54.16},
}

// ProjectToVideo maps a pitch point through BroadcastCamera.
func ProjectToVideo(p geometry.Point) geometry.Point {
	h := BroadcastCamera
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	return geometry.Point{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}
}

// BroadcastView returns every landmark paired with its exact image under BroadcastCamera.
func BroadcastView() Correspondences {
	c := Correspondences{
		Video: make([]geometry.Point, len(PitchLandmarks)),
		Pitch: append([]geometry.Point(nil), PitchLandmarks...),
	}
	for i, p := range PitchLandmarks {
		c.Video[i] = ProjectToVideo(p)
	}
	return c
}

// WithMisclick returns a copy of c in which the pitch point at index has been replaced, as if the
// user had clicked the wrong landmark.
func WithMisclick(c Correspondences, index int, wrong geometry.Point) Correspondences {
	out := c.Clone()
	out.Pitch[index] = wrong
	return out
}
