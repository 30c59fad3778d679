package services

import (
	"sort"

	"agora/internal/models"
)

// IdeaSort is an ordering of the idea listing.
type IdeaSort string

const (
	SortRecent IdeaSort = "recent"
	SortTop    IdeaSort = "top"
	SortActive IdeaSort = "active"
)

// ParseIdeaSort falls back to recent for empty or unknown values.
func ParseIdeaSort(s string) IdeaSort {
	switch IdeaSort(s) {
	case SortTop, SortActive:
		return IdeaSort(s)
	}
	return SortRecent
}

// SortIdeas orders ideas in place. It runs on the whole filtered set so that
// pages of "top" and "active" are consistent with each other.
func SortIdeas(ideas []models.Idea, by IdeaSort) {
	newer := func(i, j int) bool {
		if !ideas[i].CreatedAt.Equal(ideas[j].CreatedAt) {
			return ideas[i].CreatedAt.After(ideas[j].CreatedAt)
		}
		return ideas[i].ID > ideas[j].ID
	}

	switch by {
	case SortTop:
		sort.SliceStable(ideas, func(i, j int) bool {
			si, sj := ideas[i].NetScore(), ideas[j].NetScore()
			if si != sj {
				return si > sj
			}
			return newer(i, j)
		})
	case SortActive:
		// 评论多的优先，其次按时间
		sort.SliceStable(ideas, func(i, j int) bool {
			if ideas[i].CommentsCount != ideas[j].CommentsCount {
				return ideas[i].CommentsCount > ideas[j].CommentsCount
			}
			return newer(i, j)
		})
	default:
		sort.SliceStable(ideas, newer)
	}
}
