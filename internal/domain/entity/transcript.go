package entity

// TranscriptProjection - состояние интервью, восстановленное сверткой журнала сообщений.
// Журнал является производными данными аудита; источник истины - запись кандидата.
type TranscriptProjection struct {
	QuestionsAsked  int      `json:"questions_asked"`
	AnswersGiven    int      `json:"answers_given"`
	LastQuestionID  string   `json:"last_question_id,omitempty"`
	AnswerScores    []int    `json:"answer_scores"`
	AwaitingInfo    []string `json:"awaiting_info,omitempty"`
	AutoSubmissions int      `json:"auto_submissions"`
	FinalScore      *float64 `json:"final_score,omitempty"`
	Completed       bool     `json:"completed"`
}

// Apply применяет одно событие журнала к проекции
func (p TranscriptProjection) Apply(msg ChatMessage) TranscriptProjection {
	switch msg.MessageType {
	case MessageTypeInfoRequest:
		p.AwaitingInfo = metaStrings(msg.Metadata, MetaMissingFields)
	case MessageTypeQuestion:
		p.QuestionsAsked++
		p.AwaitingInfo = nil
		if id, ok := msg.Metadata[MetaQuestionID].(string); ok {
			p.LastQuestionID = id
		}
	case MessageTypeAnswer:
		p.AnswersGiven++
		if score, ok := metaInt(msg.Metadata, MetaScore); ok {
			p.AnswerScores = append(p.AnswerScores, score)
		}
		if auto, ok := msg.Metadata[MetaAutoSubmitted].(bool); ok && auto {
			p.AutoSubmissions++
		}
	case MessageTypeText:
		if score, ok := metaFloat(msg.Metadata, MetaFinalScore); ok {
			p.FinalScore = &score
			p.Completed = true
		}
	}
	return p
}

// ReplayTranscript сворачивает упорядоченный журнал в проекцию
func ReplayTranscript(messages []ChatMessage) TranscriptProjection {
	p := TranscriptProjection{AnswerScores: []int{}}
	for _, msg := range messages {
		p = p.Apply(msg)
	}
	return p
}

// Метаданные могут прийти как из памяти (int), так и после JSON (float64)
func metaFloat(meta JSONMap, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func metaInt(meta JSONMap, key string) (int, bool) {
	v, ok := metaFloat(meta, key)
	return int(v), ok
}

func metaStrings(meta JSONMap, key string) []string {
	switch v := meta[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
