package repo

import (
	"encoding/json"
	"fmt"

	"github.com/ayushbirla71/survey-backend/pkg/goutil"
)

// toJsonColumn marshals v for a text column. Nil values stay NULL.
func toJsonColumn(v interface{}) (*string, error) {
	if goutil.IsNil(v) {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return goutil.String(string(b)), nil
}

func fromJsonColumn(s *string, dst interface{}) error {
	if s == nil || *s == "" {
		return nil
	}
	return json.Unmarshal([]byte(*s), dst)
}

func likePattern(keyword string) *string {
	return goutil.String(fmt.Sprintf("%%%s%%", keyword))
}
