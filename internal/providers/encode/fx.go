package encode

import "go.uber.org/fx"

var Module = fx.Module("encode",
	fx.Provide(
		NewCloudinaryEncoder,
		func(e *CloudinaryEncoder) Encoder { return e },
	),
)
