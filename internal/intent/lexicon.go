// Package intent scores how task-like an utterance is, extracts a cleaned
// task description, and estimates importance/urgency. It is a bounded
// weighted-keyword model, deliberately favouring precision over recall so
// that chatter does not turn into drafts.
//
// Keyword sets are data, not code: a [Lexicon] can be loaded from a YAML
// file so the weighting model can be tuned or localised without
// recompiling. [DefaultLexicon] ships the built-in Chinese/English tables.
package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the keyword tables consumed by [Recognizer]. All matching
// is case-insensitive substring containment on the normalized utterance,
// except Acknowledgments which must match the entire normalized string.
type Lexicon struct {
	// ActionVerbs are verbs that describe doing work (+4).
	ActionVerbs []string `yaml:"action_verbs"`

	// TaskNouns name things work is done to (+3).
	TaskNouns []string `yaml:"task_nouns"`

	// UrgencyCues signal time pressure (+2, urgency → High).
	UrgencyCues []string `yaml:"urgency_cues"`

	// ImportanceCues signal significance (+2, importance → High).
	ImportanceCues []string `yaml:"importance_cues"`

	// NonUrgentCues downgrade urgency to Low when no urgency cue fires.
	NonUrgentCues []string `yaml:"non_urgent_cues"`

	// MinorCues downgrade importance to Low when no importance cue fires.
	MinorCues []string `yaml:"minor_cues"`

	// ImperativePrefixes start request-like sentences (+3 when the
	// normalized text begins with one).
	ImperativePrefixes []string `yaml:"imperative_prefixes"`

	// SmallTalk marks chatter topics (−4).
	SmallTalk []string `yaml:"small_talk"`

	// Acknowledgments are pure-acknowledgment utterances (−5 when the
	// whole normalized string is one of these).
	Acknowledgments []string `yaml:"acknowledgments"`

	// ReminderCues make an utterance reminder-like regardless of score.
	ReminderCues []string `yaml:"reminder_cues"`

	// FillerPrefixes are stripped from the front of the text during
	// description extraction, in order.
	FillerPrefixes []string `yaml:"filler_prefixes"`

	// TrailingParticles are stripped from the end of the text during
	// description extraction.
	TrailingParticles []string `yaml:"trailing_particles"`
}

// DefaultLexicon returns the built-in keyword tables.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		ActionVerbs: []string{
			"做", "完成", "处理", "解决", "写", "编辑", "修改", "修复", "检查", "审核",
			"提交", "发送", "回复", "安排", "计划", "准备", "整理", "归档", "备份",
			"安装", "配置", "学习", "研究", "阅读", "查看", "联系", "打电话", "开会",
			"讨论", "汇报", "演示", "预约", "买",
			"finish", "submit", "send", "reply", "review", "schedule", "prepare",
			"write", "fix", "install", "buy", "call", "email", "book",
		},
		TaskNouns: []string{
			"任务", "事情", "工作", "项目", "问题", "需求", "功能", "报告", "周报",
			"文档", "会议", "bug", "错误",
			"task", "meeting", "report", "project", "issue", "ticket", "deadline",
		},
		UrgencyCues: []string{
			"马上", "立刻", "立即", "尽快", "紧急", "今天", "现在", "截止",
			"deadline", "asap", "urgent", "today", "right away", "immediately",
		},
		ImportanceCues: []string{
			"重要", "必须", "关键", "核心", "主要", "重大", "严重",
			"important", "critical", "must", "essential",
		},
		NonUrgentCues: []string{
			"明天", "后天", "下周", "这周", "本周", "不急", "有空", "回头", "以后",
			"someday", "whenever", "no rush", "later this week",
		},
		MinorCues: []string{
			"次要", "小事", "简单", "随手", "顺便", "有空",
			"minor", "trivial", "small thing",
		},
		ImperativePrefixes: []string{
			"需要", "要", "得", "应该", "必须", "记得", "别忘了", "提醒我", "麻烦",
			"请", "帮我", "赶紧", "快点",
			"remember to", "don't forget", "please", "need to", "have to", "make sure",
		},
		SmallTalk: []string{
			"天气", "新闻", "八卦", "娱乐", "游戏", "电影", "音乐", "吃饭", "睡觉", "休息",
			"weather", "movie", "music", "gossip", "lunch break",
		},
		Acknowledgments: []string{
			"好的", "是的", "嗯", "嗯嗯", "哦", "啊", "呀", "哎", "哈哈", "嘿嘿", "行", "好",
			"ok", "okay", "got it", "yes", "yeah", "sure", "alright", "fine",
		},
		ReminderCues: []string{
			"提醒", "记得", "别忘", "叫我", "通知我",
			"remind", "don't forget",
		},
		FillerPrefixes: []string{
			"好的", "是的", "嗯嗯", "嗯", "哦", "啊", "呀", "哎", "嘿嘿", "哈哈",
			"对了", "那个", "呃", "麻烦你", "麻烦", "请", "帮我",
			"提醒我", "记得", "别忘了",
			"remember to", "remind me to", "don't forget to",
		},
		TrailingParticles: []string{
			"啊", "呀", "吧", "呢", "哦", "啦", "嘛", "哈",
		},
	}
}

// LoadLexicon reads a YAML lexicon file. Empty tables fall back to the
// defaults, so a tuning file only needs to override the sets it changes.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intent: read lexicon %q: %w", path, err)
	}
	lex := &Lexicon{}
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("intent: parse lexicon %q: %w", path, err)
	}
	def := DefaultLexicon()
	fillEmpty(&lex.ActionVerbs, def.ActionVerbs)
	fillEmpty(&lex.TaskNouns, def.TaskNouns)
	fillEmpty(&lex.UrgencyCues, def.UrgencyCues)
	fillEmpty(&lex.ImportanceCues, def.ImportanceCues)
	fillEmpty(&lex.NonUrgentCues, def.NonUrgentCues)
	fillEmpty(&lex.MinorCues, def.MinorCues)
	fillEmpty(&lex.ImperativePrefixes, def.ImperativePrefixes)
	fillEmpty(&lex.SmallTalk, def.SmallTalk)
	fillEmpty(&lex.Acknowledgments, def.Acknowledgments)
	fillEmpty(&lex.ReminderCues, def.ReminderCues)
	fillEmpty(&lex.FillerPrefixes, def.FillerPrefixes)
	fillEmpty(&lex.TrailingParticles, def.TrailingParticles)
	return lex, nil
}

func fillEmpty(dst *[]string, def []string) {
	if len(*dst) == 0 {
		*dst = def
	}
}
