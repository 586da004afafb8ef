package services

import (
	"quizblog/auth"
	"quizblog/models"

	"gorm.io/gorm"
)

// Profile is the public part of a user shown where a record names its author.
type Profile struct {
	ID   string    `json:"_id"`
	Name string    `json:"name"`
	Role auth.Role `json:"role"`
}

func (p Profile) GetID() string { return p.ID }

func resolveProfiles(db *gorm.DB, ids []string) (map[string]*Profile, error) {
	return resolveIDs[Profile](db.Model(&models.User{}), ids)
}

type CategoryView struct {
	models.Category
	Quizes []models.Quiz `json:"quizes"`
}

type QuizView struct {
	models.Quiz
	Category  *models.Category  `json:"category"`
	Questions []models.Question `json:"questions"`
	CreatedBy *Profile          `json:"created_by"`
}

type QuestionView struct {
	models.Question
	Category  *models.Category `json:"category"`
	Quiz      *models.Quiz     `json:"quiz"`
	CreatedBy *Profile         `json:"created_by"`
}

type ScoreView struct {
	models.Score
	Category *models.Category `json:"category"`
	Quiz     *models.Quiz     `json:"quiz"`
	TakenBy  *Profile         `json:"taken_by"`
}

type ChapterView struct {
	models.Chapter
	Course *models.Course `json:"course"`
}

type NotesView struct {
	models.Notes
	Chapter *models.Chapter `json:"chapter"`
}

type DownloadView struct {
	models.Download
	Notes          *models.Notes          `json:"notes"`
	Chapter        *models.Chapter        `json:"chapter"`
	Course         *models.Course         `json:"course"`
	CourseCategory *models.CourseCategory `json:"courseCategory"`
	DownloadedBy   *Profile               `json:"downloaded_by"`
}

func categoryViews(db *gorm.DB, categories []models.Category) ([]CategoryView, error) {
	var ids []string
	for _, c := range categories {
		ids = append(ids, c.Quizes...)
	}
	quizzes, err := resolveIDs[models.Quiz](db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryView, len(categories))
	for i, c := range categories {
		out[i] = CategoryView{Category: c, Quizes: inOrder(quizzes, c.Quizes)}
	}
	return out, nil
}

func quizViews(db *gorm.DB, quizzes []models.Quiz) ([]QuizView, error) {
	var categoryIDs, questionIDs, authorIDs []string
	for _, q := range quizzes {
		categoryIDs = append(categoryIDs, q.Category)
		questionIDs = append(questionIDs, q.Questions...)
		authorIDs = append(authorIDs, q.CreatedBy)
	}
	categories, err := resolveIDs[models.Category](db, categoryIDs)
	if err != nil {
		return nil, err
	}
	questions, err := resolveIDs[models.Question](db, questionIDs)
	if err != nil {
		return nil, err
	}
	authors, err := resolveProfiles(db, authorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]QuizView, len(quizzes))
	for i, q := range quizzes {
		out[i] = QuizView{
			Quiz:      q,
			Category:  categories[q.Category],
			Questions: inOrder(questions, q.Questions),
			CreatedBy: authors[q.CreatedBy],
		}
	}
	return out, nil
}

func questionViews(db *gorm.DB, questions []models.Question) ([]QuestionView, error) {
	var categoryIDs, quizIDs, authorIDs []string
	for _, q := range questions {
		categoryIDs = append(categoryIDs, q.Category)
		quizIDs = append(quizIDs, q.Quiz)
		authorIDs = append(authorIDs, q.CreatedBy)
	}
	categories, err := resolveIDs[models.Category](db, categoryIDs)
	if err != nil {
		return nil, err
	}
	quizzes, err := resolveIDs[models.Quiz](db, quizIDs)
	if err != nil {
		return nil, err
	}
	authors, err := resolveProfiles(db, authorIDs)
	if err != nil {
		return nil, err
	}
	out := make([]QuestionView, len(questions))
	for i, q := range questions {
		out[i] = QuestionView{
			Question:  q,
			Category:  categories[q.Category],
			Quiz:      quizzes[q.Quiz],
			CreatedBy: authors[q.CreatedBy],
		}
	}
	return out, nil
}

func scoreViews(db *gorm.DB, scores []models.Score) ([]ScoreView, error) {
	var categoryIDs, quizIDs, takerIDs []string
	for _, s := range scores {
		categoryIDs = append(categoryIDs, s.Category)
		quizIDs = append(quizIDs, s.Quiz)
		takerIDs = append(takerIDs, s.TakenBy)
	}
	categories, err := resolveIDs[models.Category](db, categoryIDs)
	if err != nil {
		return nil, err
	}
	quizzes, err := resolveIDs[models.Quiz](db, quizIDs)
	if err != nil {
		return nil, err
	}
	takers, err := resolveProfiles(db, takerIDs)
	if err != nil {
		return nil, err
	}
	out := make([]ScoreView, len(scores))
	for i, s := range scores {
		out[i] = ScoreView{
			Score:    s,
			Category: categories[s.Category],
			Quiz:     quizzes[s.Quiz],
			TakenBy:  takers[s.TakenBy],
		}
	}
	return out, nil
}

func chapterViews(db *gorm.DB, chapters []models.Chapter) ([]ChapterView, error) {
	ids := make([]string, 0, len(chapters))
	for _, c := range chapters {
		ids = append(ids, c.Course)
	}
	courses, err := resolveIDs[models.Course](db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ChapterView, len(chapters))
	for i, c := range chapters {
		out[i] = ChapterView{Chapter: c, Course: courses[c.Course]}
	}
	return out, nil
}

func notesViews(db *gorm.DB, notes []models.Notes) ([]NotesView, error) {
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.Chapter)
	}
	chapters, err := resolveIDs[models.Chapter](db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]NotesView, len(notes))
	for i, n := range notes {
		out[i] = NotesView{Notes: n, Chapter: chapters[n.Chapter]}
	}
	return out, nil
}

func downloadViews(db *gorm.DB, downloads []models.Download) ([]DownloadView, error) {
	var notesIDs, chapterIDs, courseIDs, ccIDs, userIDs []string
	for _, d := range downloads {
		notesIDs = append(notesIDs, d.Notes)
		chapterIDs = append(chapterIDs, d.Chapter)
		courseIDs = append(courseIDs, d.Course)
		ccIDs = append(ccIDs, d.CourseCategory)
		userIDs = append(userIDs, d.DownloadedBy)
	}
	notes, err := resolveIDs[models.Notes](db, notesIDs)
	if err != nil {
		return nil, err
	}
	chapters, err := resolveIDs[models.Chapter](db, chapterIDs)
	if err != nil {
		return nil, err
	}
	courses, err := resolveIDs[models.Course](db, courseIDs)
	if err != nil {
		return nil, err
	}
	courseCategories, err := resolveIDs[models.CourseCategory](db, ccIDs)
	if err != nil {
		return nil, err
	}
	users, err := resolveProfiles(db, userIDs)
	if err != nil {
		return nil, err
	}
	out := make([]DownloadView, len(downloads))
	for i, d := range downloads {
		out[i] = DownloadView{
			Download:       d,
			Notes:          notes[d.Notes],
			Chapter:        chapters[d.Chapter],
			Course:         courses[d.Course],
			CourseCategory: courseCategories[d.CourseCategory],
			DownloadedBy:   users[d.DownloadedBy],
		}
	}
	return out, nil
}

// viewOne expands a single record with the matching list expander.
func viewOne[M, V any](db *gorm.DB, row *M, expand func(*gorm.DB, []M) ([]V, error)) (*V, error) {
	views, err := expand(db, []M{*row})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
