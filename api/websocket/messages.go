package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/models"
)

type MessageType string

const (
	MessageTypeRunUpdate MessageType = "run_update"
	MessageTypeEpisode   MessageType = "episode"
	MessageTypeValue     MessageType = "value"
	MessageTypeThreshold MessageType = "threshold"
	MessageTypeAlert     MessageType = "alert"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	Model     string      `json:"model"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewMessage(msgType MessageType, modelName string, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		Model:     modelName,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() []byte {
	data, _ := json.Marshal(m)
	return data
}

type RunUpdateData struct {
	RunID    string `json:"run_id"`
	Status   string `json:"status"`
	Episodes int    `json:"episodes"`
	Errors   int    `json:"errors"`
}

type EpisodeData struct {
	AssetID      string    `json:"asset_id"`
	ZoneKey      string    `json:"zone_key,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	FuelWasteGal float64   `json:"fuel_waste_gal"`
}

type ValueData struct {
	NetValue float64 `json:"net_value"`
}

type ThresholdData struct {
	Threshold     float64 `json:"threshold"`
	NetDailyValue float64 `json:"net_daily_value"`
}

type AlertData struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func BroadcastRunUpdate(hub *Hub, report *models.RunReport) {
	data := RunUpdateData{
		RunID:    report.Run.ID,
		Status:   string(report.Run.Status),
		Episodes: len(report.Episodes),
		Errors:   len(report.AssetErrors),
	}
	msg := NewMessage(MessageTypeRunUpdate, report.Run.ModelName, data)
	hub.BroadcastToModel(report.Run.ModelName, msg.JSON())
}

func BroadcastEpisode(hub *Hub, episode *models.AnomalyEpisode) {
	data := EpisodeData{
		AssetID:      episode.AssetID,
		ZoneKey:      episode.ZoneKey,
		Start:        episode.Start,
		End:          episode.End,
		FuelWasteGal: episode.FuelWasteGal,
	}
	msg := NewMessage(MessageTypeEpisode, episode.ModelName, data)
	hub.BroadcastToModel(episode.ModelName, msg.JSON())
}

func BroadcastAlert(hub *Hub, modelName, severity, message string) {
	data := AlertData{
		Severity: severity,
		Message:  message,
	}
	msg := NewMessage(MessageTypeAlert, modelName, data)
	hub.BroadcastToModel(modelName, msg.JSON())
}
