package cache

import (
	"fmt"
	"strconv"
	"time"
)

const (
	DocumentTTL   = 600 * time.Second
	UserDocsTTL   = 300 * time.Second
	CategoriesTTL = 3600 * time.Second
)

const (
	CategoriesAll     = "CATEGORIES:ALL"
	CategoriesPattern = "CATEGORIES:*"
)

// DocumentKey addresses a single document snapshot.
func DocumentKey(id int64) string {
	return "DOCUMENT:" + strconv.FormatInt(id, 10)
}

// UserDocsKey addresses one listing page. A nil category is written as "all".
func UserDocsKey(userID int64, page, limit int, categoryID *int64, search string) string {
	cat := "all"
	if categoryID != nil {
		cat = strconv.FormatInt(*categoryID, 10)
	}
	return fmt.Sprintf("USER_DOCS:%d:page:%d:limit:%d:category:%s:search:%s", userID, page, limit, cat, search)
}

// UserDocsPattern matches every listing page of one user.
func UserDocsPattern(userID int64) string {
	return fmt.Sprintf("USER_DOCS:%d:*", userID)
}
