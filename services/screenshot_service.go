package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"formfill/browser"
	"formfill/utils"
)

// ScreenshotURLPrefix is where the local screenshot dir is served.
const ScreenshotURLPrefix = "/static/screenshots"

// ScreenshotService stores a full-page capture of the filled form so the
// operator can check it without switching to the browser window.
type ScreenshotService struct {
	S3Service *S3Service
	localDir  string
	now       func() time.Time
}

// NewScreenshotService uploads to s3Service when non-nil, else writes under localDir.
func NewScreenshotService(s3Service *S3Service, localDir string) *ScreenshotService {
	return &ScreenshotService{
		S3Service: s3Service,
		localDir:  localDir,
		now:       time.Now,
	}
}

// CaptureAndStore takes the screenshot and returns a link to it: a presigned
// S3 URL, or the path under ScreenshotURLPrefix for a local file.
func (s *ScreenshotService) CaptureAndStore(page browser.Page, sessionID string) (string, error) {
	shot, err := page.Screenshot()
	if err != nil {
		return "", fmt.Errorf("failed to take screenshot: %w", err)
	}

	filename := fmt.Sprintf("%s_%d.png", sessionID, s.now().Unix())

	if s.S3Service != nil {
		key, err := s.S3Service.Upload("screenshots/"+filename, shot, "image/png")
		if err == nil {
			url, err := s.S3Service.GeneratePresignedURL(key)
			if err != nil {
				utils.LogWarn("Presigning screenshot failed, returning object key", map[string]interface{}{"key": key, "error": err.Error()})
				return key, nil
			}
			return url, nil
		}
		utils.LogWarn("S3 upload failed, saving screenshot locally", map[string]interface{}{"error": err.Error()})
	}

	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	localPath := filepath.Join(s.localDir, filename)
	if err := os.WriteFile(localPath, shot, 0o644); err != nil {
		return "", fmt.Errorf("failed to save screenshot locally: %w", err)
	}

	utils.LogInfo("Screenshot saved locally", map[string]interface{}{"path": localPath})
	return ScreenshotURLPrefix + "/" + filename, nil
}
