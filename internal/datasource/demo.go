package datasource

import "github.com/vanderheijden86/techtree/pkg/model"

func demoNode(id string, x, y float64, label string, level model.Level) model.Node {
	return model.Node{
		ID:       id,
		Position: model.Position{X: x, Y: y},
		Data:     model.NodeData{Label: label, Level: level},
		Type:     "default",
		Style:    level.Style(),
	}
}

func demoEdge(src, dst string) model.Edge {
	return model.Edge{ID: "e" + src + "-" + dst, Source: src, Target: dst, Type: "smoothstep"}
}

// DemoDataset returns the built-in demonstration graph shown whenever the
// backend is unreachable or returns no nodes: nine certifications over the
// four tiers and two chains (electrical 1→3→5→8, information processing
// 4→6→9). A fresh copy is returned on every call.
func DemoDataset() model.GraphDataset {
	return model.GraphDataset{
		Nodes: []model.Node{
			demoNode("1", 0, 450, "전기기능사", model.LevelCraftsman),
			demoNode("2", 220, 450, "위험물기능사", model.LevelCraftsman),
			demoNode("3", 0, 300, "전기산업기사", model.LevelIndustrial),
			demoNode("4", 220, 300, "정보처리산업기사", model.LevelIndustrial),
			demoNode("5", 0, 150, "전기기사", model.LevelEngineer),
			demoNode("6", 220, 150, "정보처리기사", model.LevelEngineer),
			demoNode("7", 440, 150, "빅데이터분석기사", model.LevelEngineer),
			demoNode("8", 0, 0, "전기기술사", model.LevelProfessional),
			demoNode("9", 220, 0, "정보처리기술사", model.LevelProfessional),
		},
		Edges: []model.Edge{
			demoEdge("1", "3"),
			demoEdge("3", "5"),
			demoEdge("5", "8"),
			demoEdge("4", "6"),
			demoEdge("6", "9"),
		},
	}
}
