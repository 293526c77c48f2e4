package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/features"
)

type requestKind int

const (
	requestInvalid requestKind = iota
	requestImage
	requestFeatures
	requestLandmarks
	requestReset
)

// request is one decoded client message.
type request struct {
	kind      requestKind
	image     []byte
	features  features.Vector
	landmarks detector.LandmarkSet
}

// landmarkPayload carries pre-extracted hands as 21 [x, y, z] triples each.
type landmarkPayload struct {
	Features []float64    `json:"features"`
	Left     [][3]float64 `json:"left"`
	Right    [][3]float64 `json:"right"`
}

// decodeRequest classifies a text message. JSON objects carry features or
// landmarks, "reset" clears the sentence, and anything with a comma is a
// data URL whose payload follows the first comma.
func decodeRequest(msg []byte) (request, error) {
	text := strings.TrimSpace(string(msg))

	if strings.HasPrefix(text, "{") {
		return decodeJSON([]byte(text))
	}
	if strings.EqualFold(text, "reset") {
		return request{kind: requestReset}, nil
	}
	if i := strings.IndexByte(text, ','); i >= 0 {
		img, err := base64.StdEncoding.DecodeString(text[i+1:])
		if err != nil {
			return request{}, fmt.Errorf("decode image payload: %w", err)
		}
		return request{kind: requestImage, image: img}, nil
	}
	return request{}, errors.New("unrecognized message")
}

func decodeJSON(data []byte) (request, error) {
	var p landmarkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return request{}, fmt.Errorf("decode json payload: %w", err)
	}

	if p.Features != nil {
		v, err := features.FromSlice(p.Features)
		if err != nil {
			return request{}, err
		}
		return request{kind: requestFeatures, features: v}, nil
	}

	var hands []detector.Hand
	for _, side := range []struct {
		points     [][3]float64
		handedness string
	}{
		{p.Left, detector.HandLeft},
		{p.Right, detector.HandRight},
	} {
		if side.points == nil {
			continue
		}
		if len(side.points) != detector.NumLandmarks {
			return request{}, fmt.Errorf("%s hand has %d landmarks, want %d",
				side.handedness, len(side.points), detector.NumLandmarks)
		}
		h := detector.Hand{Handedness: side.handedness, Score: 1}
		for i, pt := range side.points {
			h.Points[i] = detector.Point3D{X: pt[0], Y: pt[1], Z: pt[2]}
		}
		hands = append(hands, h)
	}

	return request{kind: requestLandmarks, landmarks: detector.NewLandmarkSet(hands)}, nil
}
