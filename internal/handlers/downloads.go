package handlers

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/repository"
)

// TokenIssuer mints a short-lived download token for a completed job;
// satisfied by *download.TokenService.
type TokenIssuer interface {
	Issue(jobID string) (string, error)
}

// TokenVerifier checks a download token and returns the job_id it grants
// access to; satisfied by *download.TokenService.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

var (
	globalTokenIssuer   TokenIssuer
	globalTokenVerifier TokenVerifier
)

// SetGlobalTokenService wires the same *download.TokenService as both the
// issuer (used when rendering job responses) and verifier (used by the
// download endpoint).
func SetGlobalTokenService(svc interface {
	TokenIssuer
	TokenVerifier
}) {
	globalTokenIssuer = svc
	globalTokenVerifier = svc
}

// DownloadOutputs handles GET /api/v1/downloads/{job_id}: it verifies the
// caller's download token, confirms the job is COMPLETED, and streams a
// gzip-compressed tar of every output file as a single archive.
func DownloadOutputs(c *gin.Context) {
	if globalJobCache == nil || globalTokenVerifier == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "download service not configured"})
		return
	}

	jobID := c.Param("job_id")

	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("X-Download-Token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "download token required"})
		return
	}

	tokenJobID, err := globalTokenVerifier.Verify(token)
	if err != nil || tokenJobID != jobID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired download token"})
		return
	}

	job, err := globalJobCache.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve job"})
		return
	}

	if job.Status != models.JobCompleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "job has no completed output yet"})
		return
	}

	c.Header("Content-Type", "application/gzip")
	c.Header("Content-Disposition", "attachment; filename=\""+jobID+".tar.gz\"")
	c.Status(http.StatusOK)

	if err := streamArchive(c.Request.Context(), c.Writer, job.OutputPaths); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func streamArchive(ctx context.Context, w http.ResponseWriter, paths []string) error {
	gw := gzip.NewWriter(w)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFileToArchive(tw, path); err != nil {
			return err
		}
	}
	return nil
}

func addFileToArchive(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name: filepath.Base(path),
		Mode: 0o644,
		Size: info.Size(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
