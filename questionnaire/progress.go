package questionnaire

// ShowAll is the log filter that selects every category.
const ShowAll = "전체 보기"

type CategoryProgress struct {
	Name  string `json:"name"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

type Progress struct {
	Answered   int                `json:"answered"`
	Total      int                `json:"total"`
	Remaining  int                `json:"remaining"`
	Percent    int                `json:"percent"`
	Categories []CategoryProgress `json:"categories"`
}

// LogEntry is one committed question with its answer and, if any, the last
// AI draft.
type LogEntry struct {
	Category   string `json:"category"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	AIResponse string `json:"ai_response,omitempty"`
}

func (s *Session) Progress() Progress {
	p := Progress{Total: s.catalog.Total()}
	for _, cat := range s.catalog.categories {
		done := len(s.answers[cat.Name])
		p.Answered += done
		p.Categories = append(p.Categories, CategoryProgress{
			Name:  cat.Name,
			Done:  done,
			Total: len(cat.Questions),
		})
	}
	p.Remaining = p.Total - p.Answered
	if p.Total > 0 {
		p.Percent = p.Answered * 100 / p.Total
	}
	return p
}

// Log lists committed answers in catalog order. filter is ShowAll or a
// category name.
func (s *Session) Log(filter string) ([]LogEntry, error) {
	cats := s.catalog.categories
	if err := s.catalog.CheckFilter(filter); err != nil {
		return nil, err
	}
	if filter != "" && filter != ShowAll {
		i := s.catalog.index(filter)
		cats = cats[i : i+1]
	}

	var entries []LogEntry
	for _, cat := range cats {
		for _, q := range cat.Questions {
			answer, ok := s.answers[cat.Name][q]
			if !ok {
				continue
			}
			entries = append(entries, LogEntry{
				Category:   cat.Name,
				Question:   q,
				Answer:     answer,
				AIResponse: s.aiResponses[cat.Name][q],
			})
		}
	}
	return entries, nil
}
