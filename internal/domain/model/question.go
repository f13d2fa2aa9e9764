// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"sort"
)

// Question is one interview question. Immutable once fetched; Order is the
// authoritative sequencing key.
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// ParseQuestionList normalizes the three wire shapes the backend may return
// for a question list: a plain array, a {"questions": [...]} wrapper, or an
// object keyed by arbitrary ids. The result is always sorted by Order
// ascending regardless of arrival order.
func ParseQuestionList(data []byte) ([]Question, error) {
	if len(data) == 0 {
		return nil, ErrNoQuestions
	}

	var list []Question
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapper struct {
			Questions []Question `json:"questions"`
		}
		if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Questions != nil {
			list = wrapper.Questions
		} else {
			var keyed map[string]Question
			if err := json.Unmarshal(data, &keyed); err != nil {
				return nil, ErrMalformedQuestions
			}
			for _, q := range keyed {
				list = append(list, q)
			}
		}
	}

	if len(list) == 0 {
		return nil, ErrNoQuestions
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	return list, nil
}
