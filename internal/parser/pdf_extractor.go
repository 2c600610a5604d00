package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	einopdf "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"resume-skill-extractor/internal/logger"
)

// ErrUnreadablePDF 表示PDF完全不可读：加密、损坏或提取不到任何文本
var ErrUnreadablePDF = errors.New("无法从PDF中提取文本")

// PDFExtractor 双策略PDF文本提取器
// 简历PDF的文本编码方式差异很大，单一策略经常漏字；
// 这里同时跑布局提取和流式提取，选非空白字符更多的结果
type PDFExtractor struct {
	einoParser *einopdf.PDFParser
	timeout    time.Duration
	log        zerolog.Logger
}

// PDFExtractorOption 提取器配置选项
type PDFExtractorOption func(*PDFExtractor)

// WithExtractTimeout 设置单次解析超时
func WithExtractTimeout(timeout time.Duration) PDFExtractorOption {
	return func(e *PDFExtractor) {
		e.timeout = timeout
	}
}

// WithExtractorLogger 设置日志记录器
func WithExtractorLogger(log zerolog.Logger) PDFExtractorOption {
	return func(e *PDFExtractor) {
		e.log = log
	}
}

// NewPDFExtractor 初始化提取器
// ToPages=false：获取整个文档的连续文本，分页符由归一化阶段处理
func NewPDFExtractor(ctx context.Context, options ...PDFExtractorOption) (*PDFExtractor, error) {
	p, err := einopdf.NewPDFParser(ctx, &einopdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建eino PDF解析器失败: %w", err)
	}

	extractor := &PDFExtractor{
		einoParser: p,
		timeout:    30 * time.Second,
		log:        logger.Logger.With().Str("component", "pdf_extractor").Logger(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractFromBytes 从PDF字节内容提取归一化文本与页数
// 纯函数：相同输入字节总是得到相同输出
func (e *PDFExtractor) ExtractFromBytes(ctx context.Context, data []byte) (string, int, error) {
	if len(data) == 0 {
		return "", 0, fmt.Errorf("%w: 空文件", ErrUnreadablePDF)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	startTime := time.Now()

	layoutText, pageCount, layoutErr := e.extractLayout(data)
	streamText, streamErr := e.extractStream(ctx, data)

	if layoutErr != nil && streamErr != nil {
		e.log.Warn().
			AnErr("layout_err", layoutErr).
			AnErr("stream_err", streamErr).
			Msg("两种提取策略均失败")
		return "", 0, fmt.Errorf("%w: layout=%v; stream=%v", ErrUnreadablePDF, layoutErr, streamErr)
	}

	// 取非空白字符更多的策略
	text := layoutText
	strategy := "layout"
	if countNonWhitespace(streamText) > countNonWhitespace(layoutText) {
		text = streamText
		strategy = "stream"
	}

	normalized := NormalizeText(text)
	if countNonWhitespace(normalized) == 0 {
		return "", 0, fmt.Errorf("%w: 文档无可提取文本", ErrUnreadablePDF)
	}

	e.log.Debug().
		Str("strategy", strategy).
		Int("chars", len(normalized)).
		Int("pages", pageCount).
		Dur("elapsed", time.Since(startTime)).
		Msg("PDF文本提取完成")

	return normalized, pageCount, nil
}

// extractLayout 布局感知策略：按行读取每页文本，自上而下拼接
func (e *PDFExtractor) extractLayout(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		// 加密或损坏的文件在这里直接失败
		return "", 0, fmt.Errorf("打开PDF失败: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
				sb.WriteString(" ")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), numPages, nil
}

// extractStream 流式策略：eino PDF解析器提取整篇连续文本
func (e *PDFExtractor) extractStream(ctx context.Context, data []byte) (string, error) {
	docs, err := e.einoParser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI("resume.pdf"),
	)
	if err != nil {
		return "", fmt.Errorf("eino解析失败: %w", err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino解析无结果")
	}

	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(doc.Content)
		if i < len(docs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String(), nil
}

// NormalizeText 文本归一化：去控制字符、压缩行内空白、保留单个换行作为章节边界信号
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x0c", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blankRun := 0
	for _, line := range lines {
		var sb strings.Builder
		lastSpace := false
		for _, r := range line {
			if unicode.IsControl(r) {
				continue
			}
			if unicode.IsSpace(r) {
				if !lastSpace && sb.Len() > 0 {
					sb.WriteRune(' ')
				}
				lastSpace = true
				continue
			}
			sb.WriteRune(r)
			lastSpace = false
		}
		cleaned := strings.TrimSpace(sb.String())
		if cleaned == "" {
			blankRun++
			// 连续空行压缩为一个
			if blankRun == 1 && len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		blankRun = 0
		out = append(out, cleaned)
	}

	// 去掉末尾空行
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func countNonWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
