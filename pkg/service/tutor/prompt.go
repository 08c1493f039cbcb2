package tutor

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/wrongbook/pkg/domain/types"
)

type promptSet struct {
	persona      string
	analyzeTask  string
	similarTask  string
	hintLabel    string
	outputNotice string
}

var prompts = map[types.Language]promptSet{
	types.LanguageEnglish: {
		persona:      "You are a patient tutor helping a student learn from a question they got wrong.",
		analyzeTask:  "Transcribe the question in the image exactly, solve it step by step, explain the concept behind it and the likely cause of the mistake, give 3 to 5 short topic tags, and pick the subject.",
		similarTask:  "Write one new practice question that tests the same concept with different numbers or context, and give its worked answer.",
		hintLabel:    "Note from the student",
		outputNotice: "Write every text field in English. Use LaTeX between $ signs for formulas.",
	},
	types.LanguageChinese: {
		persona:      "你是一位耐心的辅导老师，帮助学生从做错的题目中学习。",
		analyzeTask:  "准确转写图片中的题目，分步骤给出解答，解释其中的知识点以及可能的出错原因，给出3到5个简短的知识点标签，并判断学科。",
		similarTask:  "出一道考查相同知识点、但数字或情境不同的新练习题，并给出详细解答。",
		hintLabel:    "学生的备注",
		outputNotice: "所有文字字段请使用简体中文。公式请用$包裹的LaTeX书写。",
	},
	types.LanguageJapanese: {
		persona:      "あなたは、生徒が間違えた問題から学べるよう手助けする丁寧な家庭教師です。",
		analyzeTask:  "画像の問題を正確に書き起こし、段階的に解き、背景となる考え方と間違えやすい原因を説明し、3〜5個の短いタグを付け、教科を判定してください。",
		similarTask:  "同じ考え方を問う、数値や状況を変えた新しい練習問題を1問作り、解答と解説を付けてください。",
		hintLabel:    "生徒からのメモ",
		outputNotice: "すべてのテキスト項目は日本語で書いてください。数式は$で囲んだLaTeXで書いてください。",
	},
}

func promptsFor(lang types.Language) promptSet {
	if p, ok := prompts[lang]; ok {
		return p
	}
	return prompts[types.LanguageEnglish]
}

const diagramInstruction = "If a figure is needed to understand the solution, draw it as a single self-contained <svg> element in diagramMarkup; otherwise leave diagramMarkup empty."

func subjectList() string {
	subjects := types.AllSubjects()
	names := make([]string, len(subjects))
	for i, s := range subjects {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

func buildSystemPrompt(lang types.Language) string {
	p := promptsFor(lang)

	var sb strings.Builder
	sb.WriteString(p.persona)
	sb.WriteString("\n\n")
	sb.WriteString(p.outputNotice)
	sb.WriteString("\n")
	sb.WriteString("Answer with a single JSON object that follows the response schema. Do not wrap it in markdown.\n")
	return sb.String()
}

func buildAnalyzePrompt(hint string, lang types.Language) string {
	p := promptsFor(lang)

	var sb strings.Builder
	sb.WriteString(p.analyzeTask)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "suggestedSubject must be one of: %s.\n", subjectList())
	sb.WriteString(diagramInstruction)
	sb.WriteString("\n")
	if hint = strings.TrimSpace(hint); hint != "" {
		fmt.Fprintf(&sb, "\n%s: %s\n", p.hintLabel, hint)
	}
	return sb.String()
}

func buildSimilarPrompt(question, analysis string, lang types.Language) string {
	p := promptsFor(lang)

	var sb strings.Builder
	sb.WriteString(p.similarTask)
	sb.WriteString("\n")
	sb.WriteString(diagramInstruction)
	sb.WriteString("\n\n## Original question\n\n")
	sb.WriteString(question)
	sb.WriteString("\n")
	if analysis = strings.TrimSpace(analysis); analysis != "" {
		sb.WriteString("\n## Analysis\n\n")
		sb.WriteString(analysis)
		sb.WriteString("\n")
	}
	return sb.String()
}
