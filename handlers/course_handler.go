package handlers

import (
	"net/http"

	"quizblog/services"

	"github.com/gin-gonic/gin"
)

// CourseHandler serves course categories, courses and chapters.
type CourseHandler struct {
	courseService *services.CourseService
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (h *CourseHandler) GetCourseCategories(c *gin.Context) {
	out, err := h.courseService.GetCourseCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) GetCourseCategory(c *gin.Context) {
	out, err := h.courseService.GetCourseCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) CreateCourseCategory(c *gin.Context) {
	var req services.CreateCourseCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.CreateCourseCategory(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CourseHandler) UpdateCourseCategory(c *gin.Context) {
	var req services.UpdateCourseCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.UpdateCourseCategory(c.Request.Context(), c.Param("id"), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) DeleteCourseCategory(c *gin.Context) {
	if err := h.courseService.DeleteCourseCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Course category deleted"})
}

func (h *CourseHandler) GetCourses(c *gin.Context) {
	out, err := h.courseService.GetCourses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) GetCoursesByCategory(c *gin.Context) {
	out, err := h.courseService.GetCoursesByCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	out, err := h.courseService.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.CreateCourse(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.UpdateCourse(c.Request.Context(), c.Param("id"), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	if err := h.courseService.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Course deleted"})
}

func (h *CourseHandler) GetChapters(c *gin.Context) {
	out, err := h.courseService.GetChapters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) GetChaptersByCourse(c *gin.Context) {
	out, err := h.courseService.GetChaptersByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) GetChapter(c *gin.Context) {
	out, err := h.courseService.GetChapter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) CreateChapter(c *gin.Context) {
	var req services.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.CreateChapter(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *CourseHandler) UpdateChapter(c *gin.Context) {
	var req services.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := h.courseService.UpdateChapter(c.Request.Context(), c.Param("id"), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *CourseHandler) DeleteChapter(c *gin.Context) {
	if err := h.courseService.DeleteChapter(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Chapter deleted"})
}
