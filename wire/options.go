package wire

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// IncludedEnergizingContainers selects which upstream containers' equipment is
// returned alongside a container's own members.
type IncludedEnergizingContainers string

const (
	EnergizingNone        IncludedEnergizingContainers = "NONE"
	EnergizingFeeders     IncludedEnergizingContainers = "FEEDERS"
	EnergizingSubstations IncludedEnergizingContainers = "SUBSTATIONS"
)

// IncludedEnergizedContainers selects which downstream containers' equipment is
// returned alongside a container's own members.
type IncludedEnergizedContainers string

const (
	EnergizedNone      IncludedEnergizedContainers = "NONE"
	EnergizedFeeders   IncludedEnergizedContainers = "FEEDERS"
	EnergizedLvFeeders IncludedEnergizedContainers = "LV_FEEDERS"
)

// NetworkState selects normal membership, current membership, or both.
type NetworkState string

const (
	NetworkStateNormal  NetworkState = "NORMAL"
	NetworkStateCurrent NetworkState = "CURRENT"
	NetworkStateAll     NetworkState = "ALL"
)

// ContainerOptions are the parameters of an equipment-for-container request.
type ContainerOptions struct {
	IncludeEnergizing IncludedEnergizingContainers `json:"include_energizing" yaml:"include_energizing"`
	IncludeEnergized  IncludedEnergizedContainers  `json:"include_energized" yaml:"include_energized"`
	NetworkState      NetworkState                 `json:"network_state" yaml:"network_state"`
}

// DefaultContainerOptions returns members only, in the normal state.
func DefaultContainerOptions() ContainerOptions {
	return ContainerOptions{
		IncludeEnergizing: EnergizingNone,
		IncludeEnergized:  EnergizedNone,
		NetworkState:      NetworkStateNormal,
	}
}

// withDefaults fills empty values.
func (o ContainerOptions) withDefaults() ContainerOptions {
	d := DefaultContainerOptions()
	if o.IncludeEnergizing == "" {
		o.IncludeEnergizing = d.IncludeEnergizing
	}
	if o.IncludeEnergized == "" {
		o.IncludeEnergized = d.IncludeEnergized
	}
	if o.NetworkState == "" {
		o.NetworkState = d.NetworkState
	}
	return o
}

// Validate rejects values outside the enumerations.
func (o ContainerOptions) Validate() error {
	o = o.withDefaults()
	switch o.IncludeEnergizing {
	case EnergizingNone, EnergizingFeeders, EnergizingSubstations:
	default:
		return fmt.Errorf("wire: unknown include-energizing value %q", o.IncludeEnergizing)
	}
	switch o.IncludeEnergized {
	case EnergizedNone, EnergizedFeeders, EnergizedLvFeeders:
	default:
		return fmt.Errorf("wire: unknown include-energized value %q", o.IncludeEnergized)
	}
	switch o.NetworkState {
	case NetworkStateNormal, NetworkStateCurrent, NetworkStateAll:
	default:
		return fmt.Errorf("wire: unknown network state %q", o.NetworkState)
	}
	return nil
}

// ContainerRequest is the equipment-for-container request message.
func ContainerRequest(containerID string, opts ContainerOptions) (*structpb.Struct, error) {
	if containerID == "" {
		return nil, fmt.Errorf("wire: empty container id")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return structpb.NewStruct(map[string]any{
		"container_id":       containerID,
		"include_energizing": string(opts.IncludeEnergizing),
		"include_energized":  string(opts.IncludeEnergized),
		"network_state":      string(opts.NetworkState),
	})
}

// ParseContainerRequest is the server-side inverse of ContainerRequest.
func ParseContainerRequest(s *structpb.Struct) (string, ContainerOptions, error) {
	m := s.AsMap()
	id := stringField(m, "container_id")
	if id == "" {
		return "", ContainerOptions{}, fmt.Errorf("wire: empty container id")
	}
	opts := ContainerOptions{
		IncludeEnergizing: IncludedEnergizingContainers(stringField(m, "include_energizing")),
		IncludeEnergized:  IncludedEnergizedContainers(stringField(m, "include_energized")),
		NetworkState:      NetworkState(stringField(m, "network_state")),
	}.withDefaults()
	if err := opts.Validate(); err != nil {
		return "", ContainerOptions{}, err
	}
	return id, opts, nil
}
