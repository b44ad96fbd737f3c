// Package store holds the row encoding shared by the SQL-backed
// hrprocess.Store implementations.
package store

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/warp/severance-engine/hrprocess"
)

// TimeLayout is fixed-width so that text columns sort chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", s, err)
	}
	return t, nil
}

// EncodeProcess serializes the parameters and whichever breakdown the
// process carries.
func EncodeProcess(p hrprocess.Process) (params, result []byte, err error) {
	params, err = json.Marshal(p.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode params: %w", err)
	}
	switch p.Kind {
	case hrprocess.KindTermination:
		result, err = json.Marshal(p.Termination)
	case hrprocess.KindLeave:
		result, err = json.Marshal(p.Leave)
	default:
		return nil, nil, fmt.Errorf("unknown process kind %q", p.Kind)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return params, result, nil
}

// DecodeProcess fills Params and the breakdown matching p.Kind.
func DecodeProcess(p *hrprocess.Process, params, result []byte) error {
	if err := json.Unmarshal(params, &p.Params); err != nil {
		return fmt.Errorf("process %s: failed to decode params: %w", p.ID, err)
	}
	var err error
	switch p.Kind {
	case hrprocess.KindTermination:
		err = json.Unmarshal(result, &p.Termination)
	case hrprocess.KindLeave:
		err = json.Unmarshal(result, &p.Leave)
	default:
		return fmt.Errorf("process %s: unknown kind %q", p.ID, p.Kind)
	}
	if err != nil {
		return fmt.Errorf("process %s: failed to decode result: %w", p.ID, err)
	}
	return nil
}
