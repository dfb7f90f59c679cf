package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
)

// uploadRequest builds a multipart note upload. Fields may override the
// defaults; a nil file skips the file part.
func (suite *HandlersTestSuite) uploadRequest(as *models.User, fields map[string]string, filename string) *httptest.ResponseRecorder {
	defaults := map[string]string{
		"title":       "Process Scheduling Summary",
		"description": "Round robin, MLFQ, and CFS with worked examples",
		"subject":     "Operating Systems",
		"course_code": "cs301",
		"university":  "Test University",
		"semester":    "5",
		"tags":        "scheduling,exam-prep",
	}
	for k, v := range fields {
		if v == "" {
			delete(defaults, k)
		} else {
			defaults[k] = v
		}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range defaults {
		suite.Require().NoError(writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		suite.Require().NoError(err)
		_, err = part.Write([]byte("%PDF-1.4 fake note content"))
		suite.Require().NoError(err)
	}
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/notes", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if as != nil {
		req.Header.Set("X-User-ID", as.ID)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestUploadNoteCleanContentGoesLive() {
	user := suite.createUser("uploader")

	w := suite.uploadRequest(user, nil, "scheduling.pdf")
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	body := suite.decode(w)
	note := body["note"].(map[string]interface{})
	suite.Equal("Process Scheduling Summary", note["title"])
	suite.Equal("active", note["status"])
	suite.Equal("CS301", note["course_code"])

	// Upload aura and note count land on the uploader.
	var dbUser models.User
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", user.ID).Error)
	suite.Equal(1, dbUser.NoteCount)
	suite.Equal(models.AuraPointsUpload, dbUser.AuraPoints)

	suite.Len(suite.uploader.uploads, 1)
}

func (suite *HandlersTestSuite) TestUploadNoteBannedContentRejected() {
	user := suite.createUser("spammer")

	w := suite.uploadRequest(user, map[string]string{
		"description": "Best essay writing service, cheap rates",
	}, "notes.pdf")
	suite.Equal(http.StatusUnprocessableEntity, w.Code, w.Body.String())

	// Nothing reached storage or the database.
	suite.Empty(suite.uploader.uploads)
	var count int64
	suite.db.Model(&models.Note{}).Count(&count)
	suite.Zero(count)
}

func (suite *HandlersTestSuite) TestUploadNoteBorderlineContentPending() {
	user := suite.createUser("shouty")

	w := suite.uploadRequest(user, map[string]string{
		"description": "Soooooooo many worked examples inside, trust me",
	}, "notes.pdf")
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	body := suite.decode(w)
	note := body["note"].(map[string]interface{})
	suite.Equal("pending", note["status"])
	suite.Contains(body["message"], "review")

	// Pending notes stay out of public listings.
	listing := suite.request("GET", "/api/v1/notes", nil, nil)
	suite.Equal(http.StatusOK, listing.Code)
	listed := suite.decode(listing)
	suite.Empty(listed["notes"])
}

func (suite *HandlersTestSuite) TestUploadNoteValidation() {
	user := suite.createUser("validator")

	// Missing file
	w := suite.uploadRequest(user, nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)

	// Unsupported extension
	w = suite.uploadRequest(user, nil, "virus.exe")
	suite.Equal(http.StatusBadRequest, w.Code)

	// Missing title
	w = suite.uploadRequest(user, map[string]string{"title": ""}, "notes.pdf")
	suite.Equal(http.StatusBadRequest, w.Code)

	// Semester out of range
	w = suite.uploadRequest(user, map[string]string{"semester": "9"}, "notes.pdf")
	suite.Equal(http.StatusBadRequest, w.Code)

	// Anonymous
	w = suite.uploadRequest(nil, nil, "notes.pdf")
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestListNotesFilters() {
	uploader := suite.createUser("lister")
	suite.createNote(uploader.ID, "os-notes")
	suite.createNote(uploader.ID, "db-notes", func(n *models.Note) {
		n.Subject = "Databases"
		n.Semester = 6
	})

	w := suite.request("GET", "/api/v1/notes?subject=Databases", nil, nil)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	listed := body["notes"].([]interface{})
	suite.Require().Len(listed, 1)
	suite.Equal("db-notes", listed[0].(map[string]interface{})["title"])
}

func (suite *HandlersTestSuite) TestGetNoteViewerFlags() {
	uploader := suite.createUser("flagged")
	viewer := suite.createUser("viewer")
	note := suite.createNote(uploader.ID, "flag-note")

	w := suite.request("POST", "/api/v1/notes/"+note.ID+"/vote", viewer, map[string]interface{}{"value": 1})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request("GET", "/api/v1/notes/"+note.ID, viewer, nil)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	suite.Equal(float64(1), body["user_vote"])
	suite.Equal(false, body["is_saved"])

	// Anonymous viewers get neutral flags.
	w = suite.request("GET", "/api/v1/notes/"+note.ID, nil, nil)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.decode(w)
	suite.Equal(float64(0), body["user_vote"])
}

func (suite *HandlersTestSuite) TestVoteNote() {
	uploader := suite.createUser("votee")
	voter := suite.createUser("voter")
	note := suite.createNote(uploader.ID, "vote-note")

	w := suite.request("POST", "/api/v1/notes/"+note.ID+"/vote", voter, map[string]interface{}{"value": 1})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	body := suite.decode(w)
	suite.Equal(float64(1), body["vote_score"])

	// Upvote notifies the uploader.
	var notifs int64
	suite.db.Model(&models.Notification{}).Where("user_id = ?", uploader.ID).Count(&notifs)
	suite.Equal(int64(1), notifs)

	// Self-vote is forbidden.
	w = suite.request("POST", "/api/v1/notes/"+note.ID+"/vote", uploader, map[string]interface{}{"value": 1})
	suite.Equal(http.StatusForbidden, w.Code)

	// Clearing with 0 works even though 0 is the binding zero value.
	w = suite.request("POST", "/api/v1/notes/"+note.ID+"/vote", voter, map[string]interface{}{"value": 0})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	body = suite.decode(w)
	suite.Equal(float64(0), body["vote_score"])

	// Out-of-range value
	w = suite.request("POST", "/api/v1/notes/"+note.ID+"/vote", voter, map[string]interface{}{"value": 7})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestSaveAndListSaved() {
	uploader := suite.createUser("savee")
	saver := suite.createUser("saver")
	note := suite.createNote(uploader.ID, "save-note")

	w := suite.request("POST", "/api/v1/notes/"+note.ID+"/save", saver, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	body := suite.decode(w)
	suite.Equal(true, body["is_saved"])

	w = suite.request("GET", "/api/v1/me/saved", saver, nil)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.decode(w)
	suite.Require().Len(body["notes"], 1)

	w = suite.request("DELETE", "/api/v1/notes/"+note.ID+"/save", saver, nil)
	suite.Equal(http.StatusOK, w.Code)
	body = suite.decode(w)
	suite.Equal(false, body["is_saved"])
}

func (suite *HandlersTestSuite) TestDownloadNote() {
	uploader := suite.createUser("downloader")
	note := suite.createNote(uploader.ID, "dl-note")

	w := suite.request("GET", "/api/v1/notes/"+note.ID+"/download", nil, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	body := suite.decode(w)
	suite.Contains(body["url"], "https://files.test/signed/")
	suite.Equal(float64(1), body["download_count"])

	// Removed notes are not downloadable.
	suite.db.Model(&models.Note{}).Where("id = ?", note.ID).Update("status", models.NoteStatusRemoved)
	w = suite.request("GET", "/api/v1/notes/"+note.ID+"/download", nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateNoteOwnerOnly() {
	uploader := suite.createUser("owner")
	other := suite.createUser("other")
	note := suite.createNote(uploader.ID, "editable")

	w := suite.request("PATCH", "/api/v1/notes/"+note.ID, other, map[string]interface{}{"title": "stolen"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request("PATCH", "/api/v1/notes/"+note.ID, uploader, map[string]interface{}{"title": "renamed"})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	var row models.Note
	suite.Require().NoError(suite.db.First(&row, "id = ?", note.ID).Error)
	suite.Equal("renamed", row.Title)
}

func (suite *HandlersTestSuite) TestDeleteNoteCleansUpFile() {
	uploader := suite.createUser("deleter")
	note := suite.createNote(uploader.ID, "doomed")

	w := suite.request("DELETE", "/api/v1/notes/"+note.ID, uploader, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Contains(suite.uploader.deleted, note.FileKey)

	w = suite.request("GET", "/api/v1/notes/"+note.ID, nil, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestLeaderboard() {
	suite.createUser("top", func(u *models.User) { u.AuraPoints = 100 })
	suite.createUser("bottom", func(u *models.User) { u.AuraPoints = 5 })

	w := suite.request("GET", "/api/v1/leaderboard", nil, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	body := suite.decode(w)
	entries := body["leaderboard"].([]interface{})
	suite.Require().Len(entries, 2)
	suite.Equal("top", entries[0].(map[string]interface{})["username"])
}

func (suite *HandlersTestSuite) TestTimetableOverlapConflict() {
	user := suite.createUser("scheduler")

	entry := map[string]interface{}{
		"day_of_week":  1,
		"start_minute": 540,
		"end_minute":   630,
		"course_code":  "CS301",
		"title":        "Operating Systems",
	}
	w := suite.request("POST", "/api/v1/timetable", user, entry)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())

	// Same slot again collides.
	w = suite.request("POST", "/api/v1/timetable", user, entry)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request("GET", "/api/v1/timetable", user, nil)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	suite.Len(body["entries"], 1)
}
