package gpu

// intersectWGSL walks every primitive per ray. Hits are written as two
// 16-byte words per lane: (t, normal.xyz) as vec4f and the prim index in
// a vec4u. The index is kept in integer storage since small-integer bit
// patterns are denormal floats and drivers may flush them to zero.
// An index of 0xffffffff (-1 as i32) means the ray escaped.
const intersectWGSL = `
struct Params {
    ray_count: u32,
    prim_count: u32,
    mode: u32, // 0 closest, 1 any
    pad: u32,
}

struct GpuRay {
    origin_tmin: vec4<f32>,
    dir_tmax: vec4<f32>,
}

// a = (pos, radius), b = (u, 0), c = (v, kind); kind 0 sphere, 1 quad
struct Prim {
    a: vec4<f32>,
    b: vec4<f32>,
    c: vec4<f32>,
}

struct GpuHit {
    t_normal: vec4<f32>,
    prim: vec4<u32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> rays: array<GpuRay>;
@group(0) @binding(2) var<storage, read> prims: array<Prim>;
@group(0) @binding(3) var<storage, read_write> hits: array<GpuHit>;

fn sphere_hit(p: Prim, o: vec3<f32>, d: vec3<f32>, tmin: f32, tmax: f32) -> vec4<f32> {
    let oc = o - p.a.xyz;
    let a = dot(d, d);
    let half_b = dot(oc, d);
    let c = dot(oc, oc) - p.a.w * p.a.w;
    let disc = half_b * half_b - a * c;
    if (disc < 0.0) {
        return vec4<f32>(-1.0, 0.0, 0.0, 0.0);
    }
    let sq = sqrt(disc);
    var t = (-half_b - sq) / a;
    if (t < tmin || t > tmax) {
        t = (-half_b + sq) / a;
        if (t < tmin || t > tmax) {
            return vec4<f32>(-1.0, 0.0, 0.0, 0.0);
        }
    }
    let n = normalize(o + d * t - p.a.xyz);
    return vec4<f32>(t, n);
}

fn quad_hit(p: Prim, o: vec3<f32>, d: vec3<f32>, tmin: f32, tmax: f32) -> vec4<f32> {
    let u = p.b.xyz;
    let v = p.c.xyz;
    let n = cross(u, v);
    let denom = dot(n, d);
    if (abs(denom) < 1e-8) {
        return vec4<f32>(-1.0, 0.0, 0.0, 0.0);
    }
    let t = dot(n, p.a.xyz - o) / denom;
    if (t < tmin || t > tmax) {
        return vec4<f32>(-1.0, 0.0, 0.0, 0.0);
    }
    let hit = o + d * t - p.a.xyz;
    let nn = dot(n, n);
    let alpha = dot(n, cross(hit, v)) / nn;
    let beta = dot(n, cross(u, hit)) / nn;
    if (alpha < 0.0 || alpha > 1.0 || beta < 0.0 || beta > 1.0) {
        return vec4<f32>(-1.0, 0.0, 0.0, 0.0);
    }
    return vec4<f32>(t, normalize(n));
}

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    if (i >= params.ray_count) {
        return;
    }
    let ray = rays[i];
    let o = ray.origin_tmin.xyz;
    let d = ray.dir_tmax.xyz;
    let tmin = ray.origin_tmin.w;
    var tmax = ray.dir_tmax.w;

    var best = -1;
    var best_hit = vec4<f32>(0.0, 0.0, 1.0, 0.0);
    for (var j = 0u; j < params.prim_count; j = j + 1u) {
        let p = prims[j];
        var h: vec4<f32>;
        if (p.c.w < 0.5) {
            h = sphere_hit(p, o, d, tmin, tmax);
        } else {
            h = quad_hit(p, o, d, tmin, tmax);
        }
        if (h.x >= tmin) {
            best = i32(j);
            best_hit = h;
            tmax = h.x;
            if (params.mode == 1u) {
                break;
            }
        }
    }
    hits[i].t_normal = best_hit;
    hits[i].prim = vec4<u32>(bitcast<u32>(best), 0u, 0u, 0u);
}
`
