package main

import (
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"
	"time"
)

// SIRI VehicleMonitoring, reduced to the fields a map consumer needs.
// Field names follow the SIRI schema so that the same structs serve JSON and XML.

type siriDocument struct {
	XMLName         xml.Name            `json:"-" xml:"Siri"`
	Version         string              `json:"-" xml:"version,attr"`
	ServiceDelivery siriServiceDelivery `json:"ServiceDelivery" xml:"ServiceDelivery"`
}

type siriServiceDelivery struct {
	ResponseTimestamp         string                  `json:"ResponseTimestamp" xml:"ResponseTimestamp"`
	VehicleMonitoringDelivery []siriVehicleMonitoring `json:"VehicleMonitoringDelivery" xml:"VehicleMonitoringDelivery"`
}

type siriVehicleMonitoring struct {
	ResponseTimestamp string                `json:"ResponseTimestamp" xml:"ResponseTimestamp"`
	VehicleActivity   []siriVehicleActivity `json:"VehicleActivity" xml:"VehicleActivity"`
}

type siriVehicleActivity struct {
	RecordedAtTime          string                      `json:"RecordedAtTime" xml:"RecordedAtTime"`
	MonitoredVehicleJourney siriMonitoredVehicleJourney `json:"MonitoredVehicleJourney" xml:"MonitoredVehicleJourney"`
}

type siriMonitoredVehicleJourney struct {
	VehicleRef      string              `json:"VehicleRef" xml:"VehicleRef"`
	VehicleLocation siriVehicleLocation `json:"VehicleLocation" xml:"VehicleLocation"`
}

type siriVehicleLocation struct {
	Longitude float64 `json:"Longitude" xml:"Longitude"`
	Latitude  float64 `json:"Latitude" xml:"Latitude"`
}

func buildVehicleMonitoring(positions []Position, now time.Time) siriDocument {
	ts := now.UTC().Format(time.RFC3339)
	activities := make([]siriVehicleActivity, 0, len(positions))
	for _, p := range positions {
		activities = append(activities, siriVehicleActivity{
			RecordedAtTime: p.Timestamp.UTC().Format(time.RFC3339Nano),
			MonitoredVehicleJourney: siriMonitoredVehicleJourney{
				VehicleRef: p.EntityID,
				VehicleLocation: siriVehicleLocation{
					Longitude: p.Longitude,
					Latitude:  p.Latitude,
				},
			},
		})
	}
	return siriDocument{
		Version: "2.0",
		ServiceDelivery: siriServiceDelivery{
			ResponseTimestamp: ts,
			VehicleMonitoringDelivery: []siriVehicleMonitoring{{
				ResponseTimestamp: ts,
				VehicleActivity:   activities,
			}},
		},
	}
}

func (a *app) handleVehicleMonitoringJSON(w http.ResponseWriter, r *http.Request) {
	doc := buildVehicleMonitoring(a.ticker.positions(), time.Now())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]siriDocument{"Siri": doc}); err != nil {
		slog.Warn("write siri json", "error", err)
	}
}

func (a *app) handleVehicleMonitoringXML(w http.ResponseWriter, r *http.Request) {
	doc := buildVehicleMonitoring(a.ticker.positions(), time.Now())
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(doc); err != nil {
		slog.Warn("write siri xml", "error", err)
	}
}
