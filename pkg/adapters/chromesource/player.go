package chromesource

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
)

type playerPage struct {
	ScriptURL string
	Width     int // CSS pixels
	Height    int
	Scale     int // canvas dpr
	Animation template.JS
}

// playerTemplate hosts a paused canvas player. window.__seek renders one
// frame relative to the first frame and returns its pixels as base64.
var playerTemplate = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>html,body{margin:0;padding:0;background:transparent;overflow:hidden}#stage{width:{{.Width}}px;height:{{.Height}}px}</style>
<script>window.__state = "loading";</script>
<script src="{{.ScriptURL}}" onerror="window.__error='failed to load lottie-web';window.__state='error'"></script>
</head>
<body>
<div id="stage"></div>
<script>
(function () {
  if (typeof lottie === "undefined") {
    window.__error = window.__error || "lottie-web is not available";
    window.__state = "error";
    return;
  }
  var stage = document.getElementById("stage");
  var anim = lottie.loadAnimation({
    container: stage,
    renderer: "canvas",
    loop: false,
    autoplay: false,
    animationData: {{.Animation}},
    rendererSettings: { clearCanvas: true, dpr: {{.Scale}}, preserveAspectRatio: "xMidYMid meet" }
  });
  anim.addEventListener("DOMLoaded", function () { window.__state = "ready"; });
  anim.addEventListener("data_failed", function () {
    window.__error = "animation data failed to load";
    window.__state = "error";
  });
  window.__seek = function (offset) {
    anim.goToAndStop(offset, true);
    var canvas = stage.querySelector("canvas");
    var data = canvas.getContext("2d").getImageData(0, 0, canvas.width, canvas.height).data;
    var chunks = [];
    for (var i = 0; i < data.length; i += 0x8000) {
      chunks.push(String.fromCharCode.apply(null, data.subarray(i, i + 0x8000)));
    }
    return btoa(chunks.join(""));
  };
})();
</script>
</body>
</html>
`))

// writePlayerPage renders the player into a temporary HTML file and returns
// its path.
func writePlayerPage(p playerPage) (string, error) {
	var buf bytes.Buffer
	if err := playerTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render player page: %w", err)
	}
	f, err := os.CreateTemp("", "lottie2apng_*.html")
	if err != nil {
		return "", fmt.Errorf("create player page: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write player page: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write player page: %w", err)
	}
	return f.Name(), nil
}
