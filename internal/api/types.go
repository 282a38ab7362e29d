package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// envelope is the standard response wrapper; code 0 means success
type envelope struct {
	Code *Number         `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Number is an integer the backend may send either as a JSON number or as a numeric string
type Number int64

// UnmarshalJSON accepts 12, 12.0, "12" and null
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		*n = 0
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = Number(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", string(b))
	}
	*n = Number(f)
	return nil
}

// Int64 returns the value as int64
func (n Number) Int64() int64 {
	return int64(n)
}

// Text keeps a scalar field's textual form whether it arrived as a string or a number
type Text string

// UnmarshalJSON stores strings unquoted and other scalars verbatim
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b)
	return nil
}

func (t Text) String() string {
	return string(t)
}

// GameInfo is the account's currency pool and click counters
type GameInfo struct {
	CurrentAmount Number `json:"currentAmount"`
	CoinPoolLeft  Number `json:"coinPoolLeft"`
	CoinPoolLimit Number `json:"coinPoolLimit"`
	ClicksToday   Number `json:"userToDayNowClick"`
	MaxClicks     Number `json:"userToDayMaxClick"`
	CollectSeqNo  Text   `json:"collectSeqNo"`
}

// CollectRequest is the form body of a coin collection
type CollectRequest struct {
	Amount   int64
	Checksum string
	SeqNo    int64
}

// Task is one reward task as listed by the backend
type Task struct {
	ID          Number `json:"id"`
	Name        string `json:"name"`
	RewardParty Text   `json:"rewardParty"`
	IsFinish    Number `json:"isFinish"`
}

// Finished reports whether the backend marks the task done
func (t Task) Finished() bool {
	return t.IsFinish != 0
}

type authData struct {
	Token string `json:"token"`
}

type taskListData struct {
	Lists []Task `json:"lists"`
}
