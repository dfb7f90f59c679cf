package handlers

import (
	"net/http"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/models"
)

func (suite *HandlersTestSuite) TestCreateReportAndDuplicateCollapse() {
	uploader := suite.createUser("reported")
	reporter := suite.createUser("reporter")
	note := suite.createNote(uploader.ID, "sketchy-note")

	payload := map[string]interface{}{
		"target_type": "note",
		"target_id":   note.ID,
		"reason":      "misleading",
		"description": "these are lecture slides, not notes",
	}
	w := suite.request("POST", "/api/v1/reports", reporter, payload)
	suite.Equal(http.StatusCreated, w.Code, w.Body.String())
	body := suite.decode(w)
	report := body["report"].(map[string]interface{})
	suite.Equal(uploader.ID, report["target_user_id"])
	suite.Equal("pending", report["status"])

	// Filing the same report again returns the open one.
	w = suite.request("POST", "/api/v1/reports", reporter, payload)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(suite.decode(w)["message"], "already filed")

	var count int64
	suite.db.Model(&models.Report{}).Count(&count)
	suite.Equal(int64(1), count)
}

func (suite *HandlersTestSuite) TestCreateReportValidation() {
	reporter := suite.createUser("picky")

	// Unknown reason
	w := suite.request("POST", "/api/v1/reports", reporter, map[string]interface{}{
		"target_type": "note",
		"target_id":   "whatever",
		"reason":      "ugly-font",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	// Missing target
	w = suite.request("POST", "/api/v1/reports", reporter, map[string]interface{}{
		"target_type": "note",
		"target_id":   "00000000-0000-0000-0000-000000000000",
		"reason":      "spam",
	})
	suite.Equal(http.StatusNotFound, w.Code)

	// Self-report
	w = suite.request("POST", "/api/v1/reports", reporter, map[string]interface{}{
		"target_type": "user",
		"target_id":   reporter.ID,
		"reason":      "harassment",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestModerationEndpointsRequireModerator() {
	regular := suite.createUser("civilian")

	w := suite.request("GET", "/api/v1/moderation/reports", regular, nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.request("GET", "/api/v1/moderation/reports", nil, nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestReviewReportRemovesNote() {
	uploader := suite.createUser("penalized", func(u *models.User) { u.AuraPoints = 50 })
	reporter := suite.createUser("watcher")
	mod := suite.createModerator("janitor")
	note := suite.createNote(uploader.ID, "bad-note")

	w := suite.request("POST", "/api/v1/reports", reporter, map[string]interface{}{
		"target_type": "note",
		"target_id":   note.ID,
		"reason":      "copyright",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)
	reportID := suite.decode(w)["report"].(map[string]interface{})["id"].(string)

	w = suite.request("POST", "/api/v1/moderation/reports/"+reportID+"/review", mod, map[string]interface{}{
		"action": "remove_note",
		"reason": "publisher slides",
	})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	report := suite.decode(w)["report"].(map[string]interface{})
	suite.Equal("resolved", report["status"])
	suite.Equal("note_removed", report["action_taken"])

	// The note is gone from public view and the uploader paid for it.
	var dbNote models.Note
	suite.Require().NoError(suite.db.First(&dbNote, "id = ?", note.ID).Error)
	suite.Equal(models.NoteStatusRemoved, dbNote.Status)

	var dbUser models.User
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", uploader.ID).Error)
	suite.Equal(50+models.AuraPointsReportActioned, dbUser.AuraPoints)

	// Reporter and uploader each got notified.
	var reporterNotifs, uploaderNotifs int64
	suite.db.Model(&models.Notification{}).Where("user_id = ?", reporter.ID).Count(&reporterNotifs)
	suite.db.Model(&models.Notification{}).Where("user_id = ?", uploader.ID).Count(&uploaderNotifs)
	suite.Equal(int64(1), reporterNotifs)
	suite.Equal(int64(1), uploaderNotifs)

	// A closed report cannot be reviewed twice.
	w = suite.request("POST", "/api/v1/moderation/reports/"+reportID+"/review", mod, map[string]interface{}{
		"action": "dismiss",
	})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestDismissReport() {
	uploader := suite.createUser("innocent")
	reporter := suite.createUser("trigger")
	mod := suite.createModerator("fairmod")
	note := suite.createNote(uploader.ID, "fine-note")

	w := suite.request("POST", "/api/v1/reports", reporter, map[string]interface{}{
		"target_type": "note",
		"target_id":   note.ID,
		"reason":      "spam",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)
	reportID := suite.decode(w)["report"].(map[string]interface{})["id"].(string)

	w = suite.request("POST", "/api/v1/moderation/reports/"+reportID+"/review", mod, map[string]interface{}{
		"action": "dismiss",
	})
	suite.Equal(http.StatusOK, w.Code)

	// The note and the uploader's aura are untouched.
	var dbNote models.Note
	suite.Require().NoError(suite.db.First(&dbNote, "id = ?", note.ID).Error)
	suite.Equal(models.NoteStatusActive, dbNote.Status)

	var dbUser models.User
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", uploader.ID).Error)
	suite.Zero(dbUser.AuraPoints)
}

func (suite *HandlersTestSuite) TestRemoveAndRestoreNetsAuraToZero() {
	uploader := suite.createUser("restored", func(u *models.User) { u.AuraPoints = 30 })
	mod := suite.createModerator("undoer")
	note := suite.createNote(uploader.ID, "borderline")

	w := suite.request("POST", "/api/v1/moderation/notes/"+note.ID+"/remove", mod, map[string]interface{}{
		"reason": "needs a second look",
	})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	var dbUser models.User
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", uploader.ID).Error)
	suite.Equal(30+models.AuraPointsReportActioned, dbUser.AuraPoints)

	// Removing twice conflicts.
	w = suite.request("POST", "/api/v1/moderation/notes/"+note.ID+"/remove", mod, nil)
	suite.Equal(http.StatusConflict, w.Code)

	w = suite.request("POST", "/api/v1/moderation/notes/"+note.ID+"/restore", mod, nil)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	// The penalty is compensated, not erased: two ledger rows netting zero.
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", uploader.ID).Error)
	suite.Equal(30, dbUser.AuraPoints)

	var events int64
	suite.db.Model(&models.AuraEvent{}).Where("user_id = ?", uploader.ID).Count(&events)
	suite.Equal(int64(2), events)

	var dbNote models.Note
	suite.Require().NoError(suite.db.First(&dbNote, "id = ?", note.ID).Error)
	suite.Equal(models.NoteStatusActive, dbNote.Status)
}

func (suite *HandlersTestSuite) TestPendingNotesQueue() {
	uploader := suite.createUser("queued")
	mod := suite.createModerator("reviewer")
	suite.createNote(uploader.ID, "old-pending", func(n *models.Note) {
		n.Status = models.NoteStatusPending
	})
	suite.createNote(uploader.ID, "active-note")

	w := suite.request("GET", "/api/v1/moderation/notes/pending", mod, nil)
	suite.Equal(http.StatusOK, w.Code)
	body := suite.decode(w)
	pending := body["notes"].([]interface{})
	suite.Require().Len(pending, 1)
	suite.Equal("old-pending", pending[0].(map[string]interface{})["title"])
	suite.Equal(float64(1), body["total"])
}

func (suite *HandlersTestSuite) TestAdjustAura() {
	target := suite.createUser("adjusted", func(u *models.User) { u.AuraPoints = 10 })
	mod := suite.createModerator("generous")

	w := suite.request("POST", "/api/v1/moderation/users/"+target.ID+"/aura", mod, map[string]interface{}{
		"points": 25,
		"reason": "helped moderate exam week spam",
	})
	suite.Equal(http.StatusOK, w.Code, w.Body.String())

	var dbUser models.User
	suite.Require().NoError(suite.db.First(&dbUser, "id = ?", target.ID).Error)
	suite.Equal(35, dbUser.AuraPoints)

	// The target is told about the adjustment.
	var notifs int64
	suite.db.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&notifs)
	suite.Equal(int64(1), notifs)

	// Missing reason is rejected.
	w = suite.request("POST", "/api/v1/moderation/users/"+target.ID+"/aura", mod, map[string]interface{}{
		"points": 5,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}
