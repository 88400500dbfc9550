package model

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Artifact is the serialized form of a fitted classifier: the model
// payload plus enough metadata to load and score it later.
type Artifact struct {
	Kind         string
	Version      string
	FeatureNames []string
	TrainedAt    time.Time

	// Exactly one payload field is set, selected by Kind.
	Logistic *LogisticRegression
	Tree     *DecisionTree
}

// NewArtifact wraps a fitted classifier with a fresh version ID.
func NewArtifact(c Classifier, featureNames []string) (*Artifact, error) {
	a := &Artifact{
		Kind:         c.Name(),
		Version:      uuid.New().String(),
		FeatureNames: featureNames,
		TrainedAt:    time.Now().UTC(),
	}
	switch m := c.(type) {
	case *LogisticRegression:
		a.Logistic = m
	case *DecisionTree:
		a.Tree = m
	default:
		return nil, fmt.Errorf("model: unsupported classifier kind %q", c.Name())
	}
	return a, nil
}

// Classifier returns the fitted classifier carried by the artifact.
func (a *Artifact) Classifier() (Classifier, error) {
	switch {
	case a.Logistic != nil:
		if a.Logistic.Weights == nil {
			return nil, errNotFitted
		}
		return a.Logistic, nil
	case a.Tree != nil:
		if a.Tree.Root == nil {
			return nil, errNotFitted
		}
		return a.Tree, nil
	}
	return nil, fmt.Errorf("model: artifact of kind %q carries no payload", a.Kind)
}

// NumFeatures returns the feature-row width the model was trained on.
func (a *Artifact) NumFeatures() int { return len(a.FeatureNames) }

// SaveArtifact gob-encodes the artifact to path, creating parent
// directories as needed.
func SaveArtifact(path string, a *Artifact) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(a); err != nil {
		return fmt.Errorf("failed to encode model artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a gob-encoded artifact from path.
func LoadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact file: %w", err)
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	return &a, nil
}
