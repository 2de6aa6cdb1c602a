package cmd

import (
	"context"

	"github.com/aquasense/aquasense/internal/knowledge"
)

// seedDocuments is the built-in reference corpus loaded into the in-memory
// knowledge base. Postgres deployments ingest their own documents instead.
var seedDocuments = []knowledge.Document{
	{
		ID: "ph-coastal-range",
		Content: "Surface seawater pH typically ranges from 7.8 to 8.3. Values " +
			"below 7.7 in coastal waters indicate acidification pressure, often " +
			"driven by upwelling or excess organic matter decomposition.",
		Metadata: map[string]string{"source": "builtin", "topic": "ph"},
	},
	{
		ID: "dissolved-oxygen",
		Content: "Dissolved oxygen above 6 mg/L supports most aquatic life. " +
			"Concentrations under 2 mg/L are hypoxic and correlate with algal " +
			"bloom die-off and thermal stratification in summer months.",
		Metadata: map[string]string{"source": "builtin", "topic": "oxygen"},
	},
	{
		ID: "turbidity-guideline",
		Content: "Turbidity in healthy coastal water stays below 5 NTU. Storm " +
			"runoff and dredging raise suspended sediment, reducing light " +
			"penetration and stressing filter feeders.",
		Metadata: map[string]string{"source": "builtin", "topic": "turbidity"},
	},
	{
		ID: "nitrogen-eutrophication",
		Content: "Total nitrogen above 0.6 mg/L in nearshore waters is an " +
			"eutrophication warning level. Sustained enrichment favours " +
			"harmful algal blooms and seasonal oxygen depletion.",
		Metadata: map[string]string{"source": "builtin", "topic": "nitrogen"},
	},
	{
		ID: "zh-ph-reference",
		Content: "海水pH值正常范围为7.8至8.3，低于7.7说明存在酸化压力。" +
			"近岸海域pH下降常与上升流和有机物分解有关，需结合溶解氧数据综合判断。",
		Metadata: map[string]string{"source": "builtin", "topic": "ph"},
	},
	{
		ID: "zh-water-quality-grades",
		Content: "海水水质按用途分为四类：第一类适用于海洋渔业水域及海上自然保护区，" +
			"第二类适用于水产养殖区和海水浴场，第三类适用于一般工业用水区，" +
			"第四类适用于海洋港口水域。",
		Metadata: map[string]string{"source": "builtin", "topic": "standards"},
	},
}

// seedKnowledge loads the built-in corpus into store.
func seedKnowledge(ctx context.Context, store *knowledge.MemoryStore) error {
	for _, doc := range seedDocuments {
		if err := store.Add(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
