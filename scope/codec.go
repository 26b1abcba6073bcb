package scope

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	kindTime     = "time"
	kindSpectral = "spectral"
	kindPlot     = "plot"
)

func encodeTimeFrame(frame *TimeFrame) *structpb.Struct {
	result := newFrameStruct(kindTime, frame.Frame)
	result.Fields["values"] = structpb.NewStructValue(encodeChannels(frame.Values))
	return result
}

func encodeSpectralFrame(frame *SpectralFrame) *structpb.Struct {
	result := newFrameStruct(kindSpectral, frame.Frame)
	result.Fields["from_frequency"] = structpb.NewNumberValue(frame.FromFrequency)
	result.Fields["to_frequency"] = structpb.NewNumberValue(frame.ToFrequency)
	result.Fields["values"] = structpb.NewListValue(encodeNumbers(frame.Values))
	result.Fields["frequency_markers"] = structpb.NewStructValue(encodeMarkers(frame.FrequencyMarkers))
	result.Fields["magnitude_markers"] = structpb.NewStructValue(encodeMarkers(frame.MagnitudeMarkers))
	return result
}

func encodePlotFrame(frame *PlotFrame) *structpb.Struct {
	result := newFrameStruct(kindPlot, frame.Frame)
	result.Fields["max_range"] = structpb.NewNumberValue(frame.MaxRange)
	points := make([]*structpb.Value, len(frame.Points))
	for i, point := range frame.Points {
		points[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":     structpb.NewNumberValue(float64(point.ID)),
			"x":      structpb.NewNumberValue(point.X),
			"y":      structpb.NewNumberValue(point.Y),
			"radius": structpb.NewNumberValue(point.Radius),
			"color":  structpb.NewStringValue(point.Color),
			"class":  structpb.NewStringValue(point.Class),
		}})
	}
	result.Fields["points"] = structpb.NewListValue(&structpb.ListValue{Values: points})
	return result
}

func newFrameStruct(kind string, frame Frame) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"kind":      structpb.NewStringValue(kind),
		"stream":    structpb.NewStringValue(string(frame.Stream)),
		"timestamp": structpb.NewStringValue(frame.Timestamp.UTC().Format(time.RFC3339Nano)),
	}}
}

func encodeNumbers(values []float64) *structpb.ListValue {
	result := &structpb.ListValue{Values: make([]*structpb.Value, len(values))}
	for i, value := range values {
		result.Values[i] = structpb.NewNumberValue(value)
	}
	return result
}

func encodeChannels(values map[ChannelID]float64) *structpb.Struct {
	result := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(values))}
	for channel, value := range values {
		result.Fields[string(channel)] = structpb.NewNumberValue(value)
	}
	return result
}

func encodeMarkers(values map[MarkerID]float64) *structpb.Struct {
	result := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(values))}
	for marker, value := range values {
		result.Fields[string(marker)] = structpb.NewNumberValue(value)
	}
	return result
}

func decodeMessage(raw *structpb.Struct) (Message, error) {
	fields := raw.GetFields()
	frame, err := decodeFrame(fields)
	if err != nil {
		return Message{}, err
	}

	kind := fields["kind"].GetStringValue()
	switch kind {
	case kindTime:
		result := &TimeFrame{Frame: frame, Values: make(map[ChannelID]float64)}
		for k, v := range fields["values"].GetStructValue().GetFields() {
			result.Values[ChannelID(k)] = v.GetNumberValue()
		}
		return Message{Time: result}, nil
	case kindSpectral:
		result := &SpectralFrame{
			Frame:            frame,
			FromFrequency:    fields["from_frequency"].GetNumberValue(),
			ToFrequency:      fields["to_frequency"].GetNumberValue(),
			FrequencyMarkers: decodeMarkers(fields["frequency_markers"].GetStructValue()),
			MagnitudeMarkers: decodeMarkers(fields["magnitude_markers"].GetStructValue()),
		}
		values := fields["values"].GetListValue().GetValues()
		result.Values = make([]float64, len(values))
		for i, v := range values {
			result.Values[i] = v.GetNumberValue()
		}
		return Message{Spectral: result}, nil
	case kindPlot:
		result := &PlotFrame{
			Frame:    frame,
			MaxRange: fields["max_range"].GetNumberValue(),
		}
		points := fields["points"].GetListValue().GetValues()
		result.Points = make([]PlotPoint, len(points))
		for i, v := range points {
			point := v.GetStructValue().GetFields()
			result.Points[i] = PlotPoint{
				ID:     uint32(point["id"].GetNumberValue()),
				X:      point["x"].GetNumberValue(),
				Y:      point["y"].GetNumberValue(),
				Radius: point["radius"].GetNumberValue(),
				Color:  point["color"].GetStringValue(),
				Class:  point["class"].GetStringValue(),
			}
		}
		return Message{Plot: result}, nil
	default:
		return Message{}, fmt.Errorf("unknown frame kind: %q", kind)
	}
}

func decodeFrame(fields map[string]*structpb.Value) (Frame, error) {
	result := Frame{Stream: StreamID(fields["stream"].GetStringValue())}
	rawTimestamp := fields["timestamp"].GetStringValue()
	if rawTimestamp == "" {
		return result, nil
	}
	timestamp, err := time.Parse(time.RFC3339Nano, rawTimestamp)
	if err != nil {
		return result, fmt.Errorf("invalid frame timestamp: %w", err)
	}
	result.Timestamp = timestamp
	return result, nil
}

func decodeMarkers(raw *structpb.Struct) map[MarkerID]float64 {
	result := make(map[MarkerID]float64, len(raw.GetFields()))
	for k, v := range raw.GetFields() {
		result[MarkerID(k)] = v.GetNumberValue()
	}
	return result
}
