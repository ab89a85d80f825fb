package state

import (
	"encoding/json"
	"time"

	"pose-studio/internal/lighting"
	"pose-studio/internal/pose"
)

// SavedPose is a named snapshot of a pose.
type SavedPose struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Pose      pose.Pose `json:"pose"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a saved pose; a record without a pose holds the
// rest pose.
func (s *SavedPose) UnmarshalJSON(data []byte) error {
	type plain SavedPose
	v := plain{Pose: pose.Rest()}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = SavedPose(v)
	return nil
}

// Vec3 is a JSON-friendly position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ModelTransform places the viewed model: yaw in degrees, uniform scale and
// an offset.
type ModelTransform struct {
	Rotation float64 `json:"rotation"`
	Scale    float64 `json:"scale"`
	Position Vec3    `json:"position"`
}

// DefaultModelTransform is unrotated, unit scale, at the origin.
func DefaultModelTransform() ModelTransform {
	return ModelTransform{Scale: 1}
}

// Model source labels.
const (
	SourceUpload      = "upload"
	SourcePoseCreator = "pose-creator"
)

// CustomModel is a user-imported or exported model registered in a catalogue.
type CustomModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Size      int64     `json:"size"`
	Category  string    `json:"category"`
	Source    string    `json:"source,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// Default model identifiers.
const (
	DefaultPoseModel  = "rigged-human"
	DefaultLightModel = "male-body"
)

// Namespaced keys. Each feature owns its prefix.
var (
	PoseCreatorPose      = Key[pose.Pose]{Name: "pose-creator/pose", Default: pose.Rest}
	PoseCreatorSaved     = Key[[]SavedPose]{Name: "pose-creator/saved-poses"}
	PoseCreatorModel     = Key[string]{Name: "pose-creator/selected-model", Default: func() string { return DefaultPoseModel }}
	PoseCreatorTransform = Key[ModelTransform]{Name: "pose-creator/model-transform", Default: DefaultModelTransform}
	PoseCreatorCustom    = Key[[]CustomModel]{Name: "pose-creator/custom-models"}

	LightReferenceModel     = Key[string]{Name: "light-reference/selected-model", Default: func() string { return DefaultLightModel }}
	LightReferenceTransform = Key[ModelTransform]{Name: "light-reference/model-transform", Default: DefaultModelTransform}
	LightReferenceCustom    = Key[[]CustomModel]{Name: "light-reference/custom-models"}
	LightReferenceLights    = Key[lighting.Rig]{Name: "light-reference/lights", Default: lighting.Default}
)
