package i18n

// chineseMessages holds the Simplified Chinese message table.
var chineseMessages = map[string]string{
	"step.retriever":   "正在检索参考资料…",
	"step.predictor":   "正在进行水质预测…",
	"step.synthesizer": "正在生成报告…",

	"step.retriever.failed":   "资料检索失败：%s",
	"step.predictor.failed":   "水质预测失败：%s",
	"step.synthesizer.failed": "报告生成失败：%s",

	"reply.fallback": "已收到你的消息：%q。你可以向我咨询水质资料、预测或报告。",
	"reply.success":  "完成。本次共为你执行了 %d 个步骤。",
	"reply.apology":  "抱歉，处理你的请求时出现问题，请稍后重试。",

	"degraded.retriever":   "资料检索暂不可用，以下回答可能缺少参考文献。",
	"degraded.predictor":   "本轮水质预测暂不可用。",
	"degraded.synthesizer": "本次未能生成报告。",
	"degraded.suffix":      "以下是仍然完成的部分。",

	"tool.missing_location": "缺少位置信息；请提供位置或在消息中包含经纬度",
	"tool.dependency":       "上游依赖 %s 失败",
	"tool.timeout":          "执行超时",

	"suggest.predict": "查询你所在位置的水质预测",
	"suggest.report":  "获取完整水质报告",
	"suggest.search":  "检索水质监测相关资料",
}
