package server

import (
	"fmt"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
)

// Transport labels for metrics.
const (
	transportHTTP      = "http"
	transportWebSocket = "websocket"
)

// target converts the optional wire matrix into a calibration.Target. An empty matrix is
// treated as absent.
func target(matrix [][]float64, sessionID string) (calibration.Target, error) {
	t := calibration.Target{SessionID: sessionID}
	if len(matrix) == 0 {
		return t, nil
	}
	h, err := homography.FromRows(matrix)
	if err != nil {
		return t, fmt.Errorf("matrix: %w", err)
	}
	t.Matrix = &h
	return t, nil
}

func point(field string, pair []float64) (geometry.Point, error) {
	p, err := geometry.FromPair(pair)
	if err != nil {
		return p, fmt.Errorf("%s: %w", field, err)
	}
	return p, nil
}

func points(field string, pairs [][]float64) ([]geometry.Point, error) {
	if pairs == nil {
		return nil, malformed("%s is required", field)
	}
	pts, err := geometry.FromPairs(pairs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return pts, nil
}

func (s *Server) calibrate(transport string, req CalibrateRequest) (CalibrateResponse, error) {
	video, err := points("video_points", req.VideoPoints)
	if err != nil {
		return CalibrateResponse{}, err
	}
	pitch, err := points("pitch_points", req.PitchPoints)
	if err != nil {
		return CalibrateResponse{}, err
	}

	res, err := s.service.Calibrate(calibration.CalibrateRequest{
		VideoPoints: video,
		PitchPoints: pitch,
		SessionID:   req.SessionID,
	})
	if err != nil {
		calibrationsTotal.WithLabelValues(transport, "error").Inc()
		return CalibrateResponse{}, err
	}

	calibrationsTotal.WithLabelValues(transport, "success").Inc()
	reprojectionError.Observe(res.ReprojectionError)
	inlierRatio.Observe(float64(res.InlierCount) / float64(len(video)))
	activeSessions.Set(float64(s.service.Registry().Len()))

	return CalibrateResponse{
		Success:           true,
		SessionID:         res.SessionID,
		Matrix:            res.Matrix.Rows(),
		ReprojectionError: res.ReprojectionError,
		Inliers:           res.Inliers,
		InlierCount:       res.InlierCount,
		Message:           res.Message,
	}, nil
}

func (s *Server) transform(req TransformRequest) (TransformResponse, error) {
	p, err := point("video_point", req.VideoPoint)
	if err != nil {
		return TransformResponse{}, err
	}
	t, err := target(req.Matrix, req.SessionID)
	if err != nil {
		return TransformResponse{}, err
	}

	q, res, err := s.service.Transform(p, t)
	if err != nil {
		return TransformResponse{}, err
	}
	transformedPoints.WithLabelValues("transform", res.Source.String()).Inc()

	return TransformResponse{Success: true, PitchPoint: q.Pair(), Source: res.Source.String()}, nil
}

func (s *Server) inverseTransform(req TransformRequest) (InverseTransformResponse, error) {
	p, err := point("video_point", req.VideoPoint)
	if err != nil {
		return InverseTransformResponse{}, err
	}
	t, err := target(req.Matrix, req.SessionID)
	if err != nil {
		return InverseTransformResponse{}, err
	}

	q, res, err := s.service.InverseTransform(p, t)
	if err != nil {
		return InverseTransformResponse{}, err
	}
	transformedPoints.WithLabelValues("inverse_transform", res.Source.String()).Inc()

	return InverseTransformResponse{Success: true, VideoPoint: q.Pair(), Source: res.Source.String()}, nil
}

func (s *Server) batchTransform(req BatchTransformRequest) (BatchTransformResponse, error) {
	pts, err := points("video_points", req.VideoPoints)
	if err != nil {
		return BatchTransformResponse{}, err
	}
	t, err := target(req.Matrix, req.SessionID)
	if err != nil {
		return BatchTransformResponse{}, err
	}

	out, res, err := s.service.BatchTransform(pts, t)
	if err != nil {
		return BatchTransformResponse{}, err
	}
	transformedPoints.WithLabelValues("batch_transform", res.Source.String()).Add(float64(len(out)))

	return BatchTransformResponse{
		Success:     true,
		PitchPoints: geometry.ToPairs(out),
		Source:      res.Source.String(),
	}, nil
}

func (s *Server) distance(req DistanceRequest) (DistanceResponse, error) {
	p1, err := point("point1", req.Point1)
	if err != nil {
		return DistanceResponse{}, err
	}
	p2, err := point("point2", req.Point2)
	if err != nil {
		return DistanceResponse{}, err
	}
	t, err := target(req.Matrix, req.SessionID)
	if err != nil {
		return DistanceResponse{}, err
	}

	res, err := s.service.Distance(p1, p2, t)
	if err != nil {
		return DistanceResponse{}, err
	}
	transformedPoints.WithLabelValues("distance", res.Source.String()).Add(2)

	return DistanceResponse{
		Success:     true,
		Distance:    res.Distance,
		PitchPoint1: res.Pitch1.Pair(),
		PitchPoint2: res.Pitch2.Pair(),
		Source:      res.Source.String(),
	}, nil
}
