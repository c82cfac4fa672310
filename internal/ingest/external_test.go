package ingest

import (
	"encoding/json"
	"testing"

	"github.com/alexzhuzhou/Aviation-Flight-Data-Processing-System-sub001/internal/flight"
)

func TestFlexibleFieldUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantInt   int64
		wantFloat float64
	}{
		{"number", `123`, 123, 123},
		{"float", `4.5`, 4, 4.5},
		{"numeric string", `"678"`, 678, 678},
		{"empty string", `""`, 0, 0},
		{"garbage string", `"abc"`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexibleField
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
			}
			if got := f.Int64(); got != tt.wantInt {
				t.Errorf("Int64() = %d, want %d", got, tt.wantInt)
			}
			if got := f.Float64(); got != tt.wantFloat {
				t.Errorf("Float64() = %v, want %v", got, tt.wantFloat)
			}
		})
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	inputs := []string{
		"2026-03-14T10:00:00Z",
		"2026-03-14T10:00:00.123Z",
		"2026-03-14 10:00:00",
		"2026-03-14T10:00:00",
	}
	for _, in := range inputs {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", in, err)
			continue
		}
		if got.Year() != 2026 || got.Hour() != 10 {
			t.Errorf("ParseTimestamp(%q) = %v", in, got)
		}
	}

	if got, err := ParseTimestamp(""); err != nil || !got.IsZero() {
		t.Errorf("ParseTimestamp(\"\") = %v, %v, want zero time", got, err)
	}
	if _, err := ParseTimestamp("last tuesday"); err == nil {
		t.Error("ParseTimestamp() should reject unparseable input")
	}
}

func TestRawPacketConvert(t *testing.T) {
	// plan_id arrives as a string, coordinates as numbers; both forms decode
	raw := []byte(`{
		"flight_intentions": [{
			"plan_id": "42",
			"indicative": "TAM100",
			"origin": "SBSP",
			"destination": "SBRJ",
			"flight_plan_date": "2026-03-14T10:00:00Z",
			"current_arrival": "2026-03-14 11:00:00"
		}],
		"tracking_pings": [{
			"indicative": "TAM100",
			"lat_rad": -0.41,
			"lon_rad": "-0.81",
			"flight_level": 30,
			"sequence": "7",
			"received_at": "2026-03-14T10:30:00Z"
		}]
	}`)

	var rp RawPacket
	if err := json.Unmarshal(raw, &rp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	packet, err := rp.Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	intent := packet.FlightIntentions[0]
	if intent.PlanID != 42 || intent.Indicative != "TAM100" {
		t.Errorf("intention = %+v", intent)
	}
	if intent.CurrentArrival.Hour() != 11 {
		t.Errorf("CurrentArrival = %v", intent.CurrentArrival)
	}

	ping := packet.TrackingPings[0]
	if ping.LonRad != -0.81 || ping.Sequence != 7 || ping.FlightLevel != 30 {
		t.Errorf("ping = %+v", ping)
	}
}

func TestRawPredictedFlightConvert(t *testing.T) {
	raw := []byte(`{
		"instance_id": 9,
		"indicative": "TAM100",
		"departure": "SBSP",
		"arrival": "SBRJ",
		"time_window": "[2026-03-14T10:00:00Z, 2026-03-14T11:00:00Z]",
		"route_elements": [
			{"lat_deg": -23.6273, "lon_deg": -46.6566, "type": "AERODROME"},
			{"lat_deg": -22.9105, "lon_deg": -43.1631, "eet_minutes": "20", "type": "AERODROME"}
		]
	}`)

	var rp RawPredictedFlight
	if err := json.Unmarshal(raw, &rp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	p, err := rp.Convert()
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if p.InstanceID != 9 || p.Departure != "SBSP" {
		t.Errorf("flight = %+v", p)
	}
	// Elements without an explicit id get positional ones
	if p.RouteElements[0].ID != 1 || p.RouteElements[1].ID != 2 {
		t.Errorf("element ids = %d, %d, want 1, 2", p.RouteElements[0].ID, p.RouteElements[1].ID)
	}
	if p.RouteElements[1].EETMinutes != 20 {
		t.Errorf("EETMinutes = %v, want 20", p.RouteElements[1].EETMinutes)
	}
	if p.RouteElements[0].Type != flight.ElementTypeAerodrome {
		t.Errorf("Type = %q", p.RouteElements[0].Type)
	}
	// One segment between the two elements
	if len(p.Segments) != 1 || p.Segments[0].FromID != 1 || p.Segments[0].ToID != 2 {
		t.Errorf("segments = %+v", p.Segments)
	}
	if p.Segments[0].DistanceNM <= 0 {
		t.Errorf("DistanceNM = %v, want positive", p.Segments[0].DistanceNM)
	}
}

func TestRawPredictedFlightConvertRequiresInstanceID(t *testing.T) {
	var rp RawPredictedFlight
	if err := json.Unmarshal([]byte(`{"indicative": "TAM100"}`), &rp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, err := rp.Convert(); err == nil {
		t.Error("Convert() should reject a predicted flight without instance_id")
	}
}
