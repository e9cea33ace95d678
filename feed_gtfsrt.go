package main

import (
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

const gtfsRealtimeVersion = "2.0"

// buildVehiclePositionsFeed renders positions as a full-dataset GTFS-Realtime feed.
func buildVehiclePositionsFeed(positions []Position, now time.Time) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(positions)),
	}
	for _, p := range positions {
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id: proto.String(p.EntityID),
			Vehicle: &gtfs.VehiclePosition{
				Vehicle: &gtfs.VehicleDescriptor{
					Id: proto.String(p.EntityID),
				},
				Position: &gtfs.Position{
					Latitude:  proto.Float32(float32(p.Latitude)),
					Longitude: proto.Float32(float32(p.Longitude)),
				},
				Timestamp: proto.Uint64(uint64(p.Timestamp.Unix())),
			},
		})
	}
	return feed
}

func (a *app) handleVehiclePositionsFeed(w http.ResponseWriter, r *http.Request) {
	feed := buildVehiclePositionsFeed(a.ticker.positions(), time.Now())
	body, err := proto.Marshal(feed)
	if err != nil {
		slog.Error("encode gtfs-rt feed", "error", err)
		http.Error(w, "encode feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(body)
}
