package cypher

import (
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.cql
var files embed.FS

var parsed sync.Map // name -> *template.Template

// MustTemplate 解析指定模板并渲染，失败直接 panic，便于在初始化阶段暴露错误。
func MustTemplate(name string, data any) string {
	tmpl, err := lookup(name)
	if err != nil {
		panic(err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		panic(fmt.Errorf("execute template %s failed: %w", name, err))
	}
	return sb.String()
}

func lookup(name string) (*template.Template, error) {
	if t, ok := parsed.Load(name); ok {
		return t.(*template.Template), nil
	}
	tmpl, err := template.New(name).ParseFS(files, name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s failed: %w", name, err)
	}
	actual, _ := parsed.LoadOrStore(name, tmpl)
	return actual.(*template.Template), nil
}

// MustAsset 返回模板原文。
func MustAsset(name string) string {
	b, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Errorf("load %s failed: %w", name, err))
	}
	return string(b)
}

// MustStatements 按分号拆分脚本，去掉空语句。
func MustStatements(name string) []string {
	var out []string
	for _, raw := range strings.Split(MustAsset(name), ";") {
		if stmt := strings.TrimSpace(raw); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
