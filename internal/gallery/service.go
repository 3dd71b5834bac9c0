// Package gallery uploads images to the upload host and returns the ids
// of the stored objects.
package gallery

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointUpload = "/upload/images"
	// FormField is the multipart field every file is sent under.
	FormField = "files"
	// MaxFiles is the most images accepted by one upload.
	MaxFiles = 10

	msgUploadFailed = "Failed to upload images"
)

// UploadResult lists the stored-object ids in upload order.
type UploadResult struct {
	IDs []string `json:"ids"`
}

// Service uploads images. Its gateway must point at the upload base URL.
type Service struct {
	uploads *gateway.Client
}

// NewService builds a gallery service on top of the upload gateway.
func NewService(uploads *gateway.Client) *Service {
	return &Service{uploads: uploads}
}

// Upload sends the files at paths as one multipart request.
func (s *Service) Upload(ctx context.Context, paths []string) result.Envelope[[]string] {
	if len(paths) == 0 {
		return result.OK([]string{})
	}
	if len(paths) > MaxFiles {
		return result.Invalid[[]string]("You can upload at most 10 images", EndpointUpload)
	}

	form := &gateway.Multipart{Files: make([]gateway.File, 0, len(paths))}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return result.Fail[[]string](result.ErrorInfo{
				Message:    msgUploadFailed,
				StatusCode: result.StatusLocalValidation,
				Path:       EndpointUpload,
				Args:       []string{err.Error(), p},
			})
		}
		form.Files = append(form.Files, gateway.File{
			Field:       FormField,
			Name:        filepath.Base(p),
			ContentType: contentType(p, data),
			Data:        data,
		})
	}

	env := s.uploads.Upload(ctx, EndpointUpload, form)
	if !env.Success {
		return result.Forward[[]string](env)
	}
	body := result.Unwrap(env.Data)
	ids, ok := storedIDs(body)
	if !ok {
		return result.Fail[[]string](result.ErrorInfo{
			Message: msgUploadFailed,
			Path:    EndpointUpload,
			Args:    []string{string(body)},
		})
	}
	return result.OK(ids)
}

// Store is Upload with the ids wrapped in an UploadResult.
func (s *Service) Store(ctx context.Context, paths []string) result.Envelope[UploadResult] {
	return result.Map(s.Upload(ctx, paths), func(ids []string) UploadResult {
		return UploadResult{IDs: ids}
	})
}

func contentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// storedIDs accepts ["id", ...], {"files":[...]} and lists of objects
// carrying id, _id, key or url, in that order of preference. ok is false
// when raw holds no such list.
func storedIDs(raw json.RawMessage) (ids []string, ok bool) {
	doc := gjson.ParseBytes(raw)
	if files := doc.Get("files"); files.IsArray() {
		doc = files
	}
	ids = []string{}
	if !doc.IsArray() {
		return ids, false
	}
	doc.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			if item.Str != "" {
				ids = append(ids, item.Str)
			}
			return true
		}
		for _, field := range []string{"id", "_id", "key", "url"} {
			if v := item.Get(field); v.Type == gjson.String && v.Str != "" {
				ids = append(ids, v.Str)
				break
			}
		}
		return true
	})
	return ids, true
}
