package models

// SubmissionModel anchors the answers of one form submission.
type SubmissionModel struct {
	Base
	Answers []AnswerModel `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (SubmissionModel) TableName() string { return "submissions" }

// AnswerModel is one answered (or explicitly empty) question of a submission.
type AnswerModel struct {
	Base
	QuestionID   string         `json:"question_id"        gorm:"type:char(36);not null;uniqueIndex:idx_answer_question_submission"`
	SubmissionID string         `json:"submission_id"      gorm:"type:char(36);not null;uniqueIndex:idx_answer_question_submission"`
	Value        *string        `json:"value"              gorm:"type:text"`
	FileURL      *string        `json:"file_url"           gorm:"type:text"`
	Question     *QuestionModel `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (AnswerModel) TableName() string { return "answers" }
