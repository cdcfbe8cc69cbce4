package apitypes

import "fmt"

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	Board   string `json:"board"`
	Build   string `json:"build"`
	PanelOn string `json:"panelOn"`
}

type LEDChannel struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Mode    uint8  `json:"mode"`
	// ModeName is "off", "level N" or a pattern name.
	ModeName string `json:"modeName"`
	Level    uint8  `json:"level"`
}

type LEDsResponse struct {
	Phase         uint16       `json:"phase"`
	PulseSpeed    uint8        `json:"pulseSpeed"`
	MaxBrightness uint8        `json:"maxBrightness"`
	Channels      []LEDChannel `json:"channels"`
}

type Input struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Pressed bool   `json:"pressed"`
	// Pin is the raw level driven through the API, before debouncing.
	Pin    bool   `json:"pin"`
	Normal string `json:"normal"`
	Shift  string `json:"shift"`
	// Active is the key the input currently maps to.
	Active string `json:"active"`
}

type InputsResponse struct {
	ShiftActive bool    `json:"shiftActive"`
	Inputs      []Input `json:"inputs"`
}

type InputSetResponse struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Pressed bool   `json:"pressed"`
}

type CommandResponse struct {
	// Command is the accepted 8-byte report, hex encoded.
	Command string `json:"command"`
}

type QueueStats struct {
	Level int `json:"level"`
	Depth int `json:"depth"`
}

type DispatchStats struct {
	Commands       uint64 `json:"commands"`
	BadCommands    uint64 `json:"badCommands"`
	ConfigCommands uint64 `json:"configCommands"`
	Reports        uint64 `json:"reports"`
	TxOverflows    uint64 `json:"txOverflows"`
}

type LinkStats struct {
	TxFrames   uint64 `json:"txFrames"`
	TxDropped  uint64 `json:"txDropped"`
	RxFrames   uint64 `json:"rxFrames"`
	Discarded  uint64 `json:"discarded"`
	SyncErrors uint64 `json:"syncErrors"`
	SizeErrors uint64 `json:"sizeErrors"`
	Overflows  uint64 `json:"overflows"`
	LineErrors uint64 `json:"lineErrors"`
}

type StatsResponse struct {
	Build          string                `json:"build"`
	USB            DispatchStats         `json:"usb"`
	LED            *DispatchStats        `json:"led,omitempty"`
	Link           *LinkStats            `json:"link,omitempty"`
	Queues         map[string]QueueStats `json:"queues,omitempty"`
	DroppedReports uint64                `json:"droppedReports"`
	Scans          uint64                `json:"scans"`
	PWMTicks       uint64                `json:"pwmTicks"`
	Millis         uint32                `json:"millis"`
}
