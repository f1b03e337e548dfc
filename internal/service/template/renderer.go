package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/gotomicro/ego/core/elog"
	gocache "github.com/patrickmn/go-cache"

	"github.com/khetisetu/notification-event-service/internal/errs"
)

const (
	defaultLanguage = "en"
	// 主题映射文件，每种语言一份
	subjectsFileName = "notification_templates.json"
)

// Service 模板渲染服务
type Service interface {
	// Render 渲染通知正文，模板不存在时返回 ErrTemplateNotFound
	Render(templateName string, params map[string]string, language string) (string, error)
	// ResolveSubject 解析通知主题：参数优先，其次语言级主题映射，最后用模板名兜底
	ResolveSubject(templateName string, params map[string]string, language string) string
}

// FileService 基于本地模板目录的实现
//
// 目录结构：<dir>/<language>/<templateName>.tmpl，
// 主题映射在 <dir>/<language>/notification_templates.json。
type FileService struct {
	dir          string
	subjectCache *gocache.Cache
	logger       *elog.Component
}

func NewFileService(dir string) *FileService {
	return &FileService{
		dir:          dir,
		subjectCache: gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		logger:       elog.DefaultLogger,
	}
}

func (s *FileService) Render(templateName string, params map[string]string, language string) (string, error) {
	language = normalizeLanguage(language)
	path := filepath.Join(s.dir, language, templateName+".tmpl")

	tmpl, err := template.ParseFiles(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s/%s", errs.ErrTemplateNotFound, language, templateName)
		}
		return "", fmt.Errorf("解析模板失败: %w", err)
	}

	data := make(map[string]any, len(params)+2)
	for k, v := range params {
		data[k] = v
	}
	now := time.Now()
	data["createdDate"] = now.Format("02 Jan 2006, 03:04 PM")
	data["year"] = now.Year()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染模板失败 %s: %w", templateName, err)
	}
	return buf.String(), nil
}

func (s *FileService) ResolveSubject(templateName string, params map[string]string, language string) string {
	raw := s.rawSubject(templateName, params, normalizeLanguage(language))
	return substitute(raw, params)
}

func (s *FileService) rawSubject(templateName string, params map[string]string, language string) string {
	// 1. 参数里直接带了主题
	if subject, ok := params["subject"]; ok && subject != "" {
		return subject
	}

	// 2. 语言级主题映射文件
	cacheKey := language + "_" + templateName
	if cached, ok := s.subjectCache.Get(cacheKey); ok {
		return cached.(string)
	}
	if subject, ok := s.lookupSubject(templateName, language); ok {
		s.subjectCache.Set(cacheKey, subject, gocache.NoExpiration)
		return subject
	}

	// 3. 兜底：把模板名整理成可读主题
	return strings.ReplaceAll(templateName, "_", " ")
}

func (s *FileService) lookupSubject(templateName, language string) (string, bool) {
	path := filepath.Join(s.dir, language, subjectsFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("读取主题映射文件失败",
				elog.FieldErr(err),
				elog.String("path", path))
		}
		return "", false
	}

	var entries []struct {
		Name    string `json:"name"`
		Subject string `json:"subject"`
	}
	if err := json.Unmarshal(content, &entries); err != nil {
		s.logger.Warn("解析主题映射文件失败",
			elog.FieldErr(err),
			elog.String("path", path))
		return "", false
	}

	for _, entry := range entries {
		if entry.Name == templateName {
			return entry.Subject, true
		}
	}
	return "", false
}

// substitute 替换主题里的 {{param}} 占位符
func substitute(subject string, params map[string]string) string {
	for k, v := range params {
		if v == "" {
			continue
		}
		subject = strings.ReplaceAll(subject, "{{"+k+"}}", v)
	}
	return subject
}

func normalizeLanguage(language string) string {
	if language == "" {
		return defaultLanguage
	}
	return language
}
