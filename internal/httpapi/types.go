package httpapi

import "github.com/wmaslo/testgenerator/internal/bank"

type topicsResponse struct {
	Topics []bank.Topic `json:"topics"`
}

type testsResponse struct {
	Tests []bank.Test `json:"tests"`
}

type previewQuestionResponse struct {
	Position       int      `json:"position"`
	QuestionID     int64    `json:"question_id"`
	Text           string   `json:"text"`
	TopicName      string   `json:"topic_name"`
	// Points is what the question counts in this test.
	Points         float64  `json:"points"`
	QuestionPoints float64  `json:"question_points"`
	PointsOverride *float64 `json:"points_override,omitempty"`
}

type previewResponse struct {
	Test        bank.Test                 `json:"test"`
	Questions   []previewQuestionResponse `json:"questions"`
	TotalPoints float64                   `json:"total_points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toPreviewResponse(preview bank.Preview) previewResponse {
	questions := make([]previewQuestionResponse, 0, len(preview.Questions))
	for _, item := range preview.Questions {
		questions = append(questions, previewQuestionResponse{
			Position:       item.Position,
			QuestionID:     item.QuestionID,
			Text:           item.Text,
			TopicName:      item.TopicName,
			Points:         item.EffectivePoints(),
			QuestionPoints: item.Points,
			PointsOverride: item.PointsOverride,
		})
	}
	return previewResponse{
		Test:        preview.Test,
		Questions:   questions,
		TotalPoints: preview.TotalPoints(),
	}
}
